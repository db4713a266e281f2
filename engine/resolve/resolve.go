// Package resolve maps the noun phrases of a parsed command to entity IDs
// within what the acting actor can currently perceive.
package resolve

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Result holds the resolved entity IDs for a command.
type Result struct {
	DirectID   string
	IndirectID string
}

// AmbiguityError indicates multiple entities matched a noun phrase.
type AmbiguityError struct {
	Name       string
	Candidates []string // display names
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// NotFoundError indicates no entity in scope matched a noun phrase.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("you don't see %q here", e.Name)
}

// Command resolves the direct and indirect objects of cmd for actorID.
// Missing noun slots resolve to "".
func Command(w *state.World, actorID string, cmd types.Command) (Result, error) {
	var (
		res Result
		err error
	)
	if cmd.DirectObject != nil {
		res.DirectID, err = Phrase(w, actorID, cmd.DirectAdjective, cmd.DirectObject)
		if err != nil {
			return res, err
		}
	}
	if cmd.IndirectObject != nil {
		res.IndirectID, err = Phrase(w, actorID, cmd.IndirectAdjective, cmd.IndirectObject)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// Phrase resolves one adjective/noun pair. The adjective may be nil.
func Phrase(w *state.World, actorID string, adj, noun *types.Word) (string, error) {
	var matches []string
	for _, id := range Scope(w, actorID) {
		e, _ := w.Get(id)
		if matchesNoun(e, noun) && (adj == nil || matchesAdjective(e, adj)) {
			matches = append(matches, id)
		}
	}

	name := noun.Text
	if adj != nil {
		name = adj.Text + " " + name
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, id := range matches {
			names[i] = DisplayName(w, id)
		}
		return "", &AmbiguityError{Name: name, Candidates: names}
	}
}

// Scope returns, sorted, every entity the actor can perceive: itself, its
// location, the actors and exits there, the locks on those exits, and the
// items in the location or carried by the actor, including the contents of
// items that are not closed.
func Scope(w *state.World, actorID string) []string {
	a, ok := w.Get(actorID)
	if !ok || a.Actor == nil {
		return nil
	}
	loc := a.Actor.Location

	seen := map[string]bool{actorID: true, loc: true}
	for _, id := range w.ActorsAt(loc) {
		seen[id] = true
	}
	for _, x := range w.ExitsFrom(loc) {
		seen[x.ID] = true
		if x.Exit.Lock != "" {
			seen[x.Exit.Lock] = true
		}
	}

	var walk func(container string)
	walk = func(container string) {
		for _, id := range w.Contents(container) {
			if seen[id] {
				continue
			}
			seen[id] = true
			if !w.BoolProp(id, "closed", false) {
				walk(id)
			}
		}
	}
	walk(loc)
	walk(actorID)

	out := make([]string, 0, len(seen))
	for id := range seen {
		if _, ok := w.Get(id); ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// DisplayName returns an entity's name, falling back to its id.
func DisplayName(w *state.World, id string) string {
	if e, ok := w.Get(id); ok && e.Name != "" {
		return e.Name
	}
	return id
}

// matchesNoun checks the noun and its synonyms against the words of the
// entity name, the "nouns" property, and the id.
func matchesNoun(e *types.Entity, noun *types.Word) bool {
	terms := append([]string{noun.Text}, noun.Synonyms...)
	words := strings.Fields(strings.ToLower(e.Name))
	words = append(words, stringList(e.Props["nouns"])...)
	words = append(words, strings.Split(strings.ToLower(e.ID), "_")...)
	for _, t := range terms {
		if slices.Contains(words, t) {
			return true
		}
	}
	return false
}

func matchesAdjective(e *types.Entity, adj *types.Word) bool {
	terms := append([]string{adj.Text}, adj.Synonyms...)
	words := strings.Fields(strings.ToLower(e.Name))
	words = append(words, stringList(e.Props["adjectives"])...)
	for _, t := range terms {
		if slices.Contains(words, t) {
			return true
		}
	}
	return false
}

// stringList reads a list property that may come from Go, JSON or Lua.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		for i, s := range list {
			out[i] = strings.ToLower(s)
		}
		return out
	case []any:
		var out []string
		for _, x := range list {
			if s, ok := x.(string); ok {
				out = append(out, strings.ToLower(s))
			}
		}
		return out
	case string:
		return strings.Fields(strings.ToLower(list))
	default:
		return nil
	}
}
