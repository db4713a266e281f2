// Package events interns event names to integer handles and records which
// modules contribute reactions to each event. It carries no behavior.
package events

import "sort"

// ID is the interned handle of an event name.
type ID int

// None is never assigned to a name.
const None ID = -1

// Well-known event names fired by the engine itself.
const (
	Turn             = "on_turn"
	ConditionExpired = "on_condition_expired"
)

// Prefixes for events derived from a triggering verb.
const (
	BeforePrefix = "on_"
	AfterPrefix  = "after_"
)

// Before returns the veto-poll event name for a verb.
func Before(verb string) string {
	return BeforePrefix + verb
}

// After returns the post-commit event name for a verb.
func After(verb string) string {
	return AfterPrefix + verb
}

// Entry is the introspection record for one event name.
type Entry struct {
	Name    string
	Modules []string
}

// Table is the event registry. Names are interned once at load time.
type Table struct {
	ids     map[string]ID
	entries []Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{ids: map[string]ID{}}
}

// Intern returns the handle for name, allocating one if needed.
func (t *Table) Intern(name string) ID {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := ID(len(t.entries))
	t.ids[name] = id
	t.entries = append(t.entries, Entry{Name: name})
	return id
}

// Contribute records that module reacts to name and returns its handle.
func (t *Table) Contribute(name, module string) ID {
	id := t.Intern(name)
	e := &t.entries[id]
	for _, m := range e.Modules {
		if m == module {
			return id
		}
	}
	e.Modules = append(e.Modules, module)
	return id
}

// Lookup returns the handle for name, or None if no module reacts to it.
func (t *Table) Lookup(name string) ID {
	if id, ok := t.ids[name]; ok {
		return id
	}
	return None
}

// Name returns the name behind a handle.
func (t *Table) Name(id ID) string {
	if id < 0 || int(id) >= len(t.entries) {
		return ""
	}
	return t.entries[id].Name
}

// Len returns the number of interned names.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of every entry sorted by name.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Name: e.Name, Modules: append([]string(nil), e.Modules...)}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
