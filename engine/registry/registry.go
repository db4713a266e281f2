// Package registry holds the loaded behavior modules: their vocabulary, the
// per-verb handler chains ordered by precedence tier, and the entity-scoped
// reaction tables used by the mutation gate.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pixil98/go-errors"

	"github.com/nathoo/fablecore/engine/events"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

// Tier is a precedence tier. Lower values take precedence.
type Tier int

const (
	TierGame Tier = iota
	TierLibrary
	TierCore
)

func (t Tier) String() string {
	switch t {
	case TierGame:
		return "game"
	case TierLibrary:
		return "library"
	case TierCore:
		return "core"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Mutator is the mutation gate as seen by handlers and reactions.
type Mutator interface {
	Apply(entityID string, changes []types.Change, verb, actorID string) types.MutationResult
}

// Context is what handlers and reactions receive. World is for reading;
// every entity change goes through Gate.
type Context struct {
	World   *state.World
	Gate    Mutator
	ActorID string
}

// Event is a reaction invocation.
type Event struct {
	Name     string
	EntityID string
	Verb     string
	ActorID  string
	Changes  []types.Change // proposed changes for a veto poll
	Data     map[string]any
}

// Next invokes the next lower handler in the chain. Calling it more than
// once returns the first result without re-running the handler.
type Next func() types.Outcome

// Handler executes a player command for a verb.
type Handler func(ctx *Context, cmd types.Command, next Next) types.Outcome

// Reaction responds to an event on an entity that lists the module among
// its behaviors. Returning Vetoed aborts the pending mutation.
type Reaction func(ctx *Context, ev Event) types.Outcome

// Module is the static descriptor of a behavior module.
type Module struct {
	Name       string
	Vocabulary []types.Word
	Handlers   map[string]Handler  // canonical verb -> handler
	Reactions  map[string]Reaction // event name -> reaction
}

// ConfigError is a load-time configuration problem. It is fatal: no turn
// can run against a registry that reported one.
type ConfigError struct {
	Module string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Module == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("module %q: %v", e.Module, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

type loaded struct {
	name      string
	tier      Tier
	verbs     []string
	reactions map[events.ID]Reaction
}

type link struct {
	module string
	tier   Tier
	fn     Handler
}

// Registry is built once per session by registering modules in
// precedence order, then sealed by Bind.
type Registry struct {
	log    *slog.Logger
	words  *vocab.Builder
	table  *vocab.Table
	events *events.Table

	modules []*loaded
	byName  map[string]int
	chains  map[string][]link
	bound   map[string][]int // entity id -> module indices, in listed order
	sealed  bool
}

// New returns an empty registry.
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:    log,
		words:  vocab.NewBuilder(),
		events: events.NewTable(),
		byName: map[string]int{},
		chains: map[string][]link{},
		bound:  map[string][]int{},
	}
}

// Register adds a module at a tier. Modules must arrive in precedence
// order (game, then library, then core) so that each verb's chain is
// built by appending.
func (r *Registry) Register(m Module, tier Tier) error {
	if r.sealed {
		return &ConfigError{Module: m.Name, Err: fmt.Errorf("registered after the world was bound")}
	}
	if strings.TrimSpace(m.Name) == "" {
		return &ConfigError{Err: fmt.Errorf("module has no name")}
	}
	if _, dup := r.byName[m.Name]; dup {
		return &ConfigError{Module: m.Name, Err: fmt.Errorf("registered twice")}
	}
	if tier < TierGame || tier > TierCore {
		return &ConfigError{Module: m.Name, Err: fmt.Errorf("invalid tier %d", int(tier))}
	}
	if n := len(r.modules); n > 0 && r.modules[n-1].tier > tier {
		return &ConfigError{Module: m.Name, Err: fmt.Errorf("%s tier registered after %s tier", tier, r.modules[n-1].tier)}
	}

	if err := r.words.AddAll(m.Name, m.Vocabulary); err != nil {
		return &ConfigError{Module: m.Name, Err: err}
	}

	mod := &loaded{name: m.Name, tier: tier, reactions: map[events.ID]Reaction{}}
	for _, verb := range sortedKeys(m.Handlers) {
		fn := m.Handlers[verb]
		if fn == nil {
			return &ConfigError{Module: m.Name, Err: fmt.Errorf("handler for %q is nil", verb)}
		}
		verb = strings.ToLower(verb)
		r.chains[verb] = append(r.chains[verb], link{module: m.Name, tier: tier, fn: fn})
		mod.verbs = append(mod.verbs, verb)
	}
	for _, name := range sortedKeys(m.Reactions) {
		fn := m.Reactions[name]
		if fn == nil {
			return &ConfigError{Module: m.Name, Err: fmt.Errorf("reaction for %q is nil", name)}
		}
		mod.reactions[r.events.Contribute(name, m.Name)] = fn
	}

	r.byName[m.Name] = len(r.modules)
	r.modules = append(r.modules, mod)
	r.table = nil

	r.log.Info("module registered",
		"module", m.Name,
		"tier", tier.String(),
		"words", len(m.Vocabulary),
		"handlers", len(m.Handlers),
		"reactions", len(m.Reactions))
	return nil
}

// Vocabulary returns the merged vocabulary of every registered module.
func (r *Registry) Vocabulary() *vocab.Table {
	if r.table == nil {
		r.table = r.words.Build()
	}
	return r.table
}

// Bind resolves every entity's behavior list to registered modules and
// seals the registry. It also checks that every handler verb is a verb in
// the merged vocabulary. All problems are reported together.
func (r *Registry) Bind(w *state.World) error {
	r.sealed = true
	vt := r.Vocabulary()

	el := errors.NewErrorList()
	for _, verb := range sortedKeys(r.chains) {
		word, ok := vt.Lookup(verb)
		if !ok || word.Class != types.ClassVerb || word.Text != verb {
			el.Add(fmt.Errorf("handler verb %q (module %q) is not a canonical verb",
				verb, r.chains[verb][0].module))
		}
	}

	bound := map[string][]int{}
	for _, id := range w.IDs() {
		e, _ := w.Get(id)
		if len(e.Behaviors) == 0 {
			continue
		}
		idx := make([]int, 0, len(e.Behaviors))
		for _, name := range e.Behaviors {
			i, ok := r.byName[name]
			if !ok {
				el.Add(fmt.Errorf("entity %q: unknown behavior module %q", id, name))
				continue
			}
			idx = append(idx, i)
		}
		bound[id] = idx
	}
	if err := el.Err(); err != nil {
		return &ConfigError{Err: fmt.Errorf("binding failed: %w", err)}
	}
	r.bound = bound
	r.log.Info("world bound", "entities", w.Len(), "with_behaviors", len(bound), "events", r.events.Len())
	return nil
}

// Unrecognized is the outcome of a verb no handler claims.
func Unrecognized(verb string) types.Outcome {
	return types.Outcome{Unrecognized: true, Data: map[string]any{"verb": verb}}
}

// DispatchCommand runs the handler chain for the command's verb. The first
// handler runs; lower tiers run only through explicit delegation.
func (r *Registry) DispatchCommand(ctx *Context, cmd types.Command) types.Outcome {
	if cmd.Verb == nil {
		return Unrecognized("")
	}
	verb := cmd.Verb.Text
	chain := r.chains[verb]
	if len(chain) == 0 {
		r.log.Debug("no handler", "verb", verb)
		return Unrecognized(verb)
	}
	return r.invoke(ctx, cmd, chain, 0)
}

func (r *Registry) invoke(ctx *Context, cmd types.Command, chain []link, i int) types.Outcome {
	if i >= len(chain) {
		return Unrecognized(cmd.Verb.Text)
	}
	var (
		done   bool
		cached types.Outcome
	)
	next := func() types.Outcome {
		if !done {
			done = true
			cached = r.invoke(ctx, cmd, chain, i+1)
		}
		return cached
	}
	return chain[i].fn(ctx, cmd, next)
}

// DispatchEvent invokes the reactions for ev.Name from the modules the
// target entity lists, in listed order. Non-empty messages are joined by
// newlines. The first veto stops the poll and its message replaces the
// aggregate. An entity with no matching reaction yields a successful,
// empty outcome.
func (r *Registry) DispatchEvent(ctx *Context, ev Event) types.Outcome {
	out := types.Outcome{Success: true}
	id := r.events.Lookup(ev.Name)
	if id == events.None {
		return out
	}

	var msgs []string
	for _, mi := range r.bound[ev.EntityID] {
		mod := r.modules[mi]
		fn, ok := mod.reactions[id]
		if !ok {
			continue
		}
		res := fn(ctx, ev)
		if res.Vetoed {
			r.log.Debug("vetoed", "event", ev.Name, "entity", ev.EntityID, "module", mod.name)
			res.Success = false
			return res
		}
		if res.Message != "" {
			msgs = append(msgs, res.Message)
		}
		for k, v := range res.Data {
			if out.Data == nil {
				out.Data = map[string]any{}
			}
			out.Data[k] = v
		}
	}
	out.Message = strings.Join(msgs, "\n")
	return out
}

// Reacts reports whether any module bound to the entity handles event.
func (r *Registry) Reacts(entityID, event string) bool {
	id := r.events.Lookup(event)
	if id == events.None {
		return false
	}
	for _, mi := range r.bound[entityID] {
		if _, ok := r.modules[mi].reactions[id]; ok {
			return true
		}
	}
	return false
}

// Events returns the event registry entries, sorted by name.
func (r *Registry) Events() []events.Entry {
	return r.events.Entries()
}

// ModuleInfo describes a registered module for introspection.
type ModuleInfo struct {
	Name      string
	Tier      Tier
	Verbs     []string
	Reactions []string
}

// Modules returns every registered module in registration order.
func (r *Registry) Modules() []ModuleInfo {
	out := make([]ModuleInfo, 0, len(r.modules))
	for _, m := range r.modules {
		info := ModuleInfo{Name: m.name, Tier: m.tier, Verbs: append([]string(nil), m.verbs...)}
		for id := range m.reactions {
			info.Reactions = append(info.Reactions, r.events.Name(id))
		}
		sort.Strings(info.Reactions)
		out = append(out, info)
	}
	return out
}

// Chain returns the module names handling verb, highest precedence first.
func (r *Registry) Chain(verb string) []string {
	var out []string
	for _, l := range r.chains[verb] {
		out = append(out, l.module)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
