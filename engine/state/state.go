// Package state holds the world: every entity, the turn counter, the
// actor-order flag, and the queues that are only drained between turns.
// Entity fields are read here and written only by the mutation gate.
package state

import (
	"fmt"
	"sort"

	"github.com/nathoo/fablecore/types"
)

// World is the entity collection owned by the engine for a session.
type World struct {
	Turn      int
	TurnOrder types.TurnOrder

	entities  map[string]*types.Entity
	ids       []string // sorted, rebuilt on add/remove
	scheduled []types.ScheduledEvent
	removals  []string
}

// New creates an empty world.
func New(order types.TurnOrder) *World {
	if order == "" {
		order = types.OrderSorted
	}
	return &World{
		TurnOrder: order,
		entities:  map[string]*types.Entity{},
	}
}

// Add inserts an entity at load time. Ids are unique across all kinds.
func (w *World) Add(e types.Entity) error {
	if e.ID == "" {
		return fmt.Errorf("%s entity with empty id", e.Kind)
	}
	if _, ok := w.entities[e.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
	}
	if e.Props == nil {
		e.Props = map[string]any{}
	}
	c := Clone(&e)
	w.entities[e.ID] = &c
	w.reindex()
	return nil
}

func (w *World) reindex() {
	w.ids = w.ids[:0]
	for id := range w.entities {
		w.ids = append(w.ids, id)
	}
	sort.Strings(w.ids)
}

// Get returns the live entity with the given id. Callers must not write
// through the pointer; route changes through the gate.
func (w *World) Get(id string) (*types.Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Player returns the player actor.
func (w *World) Player() *types.Entity {
	return w.entities[types.PlayerID]
}

// IDs returns every entity id in sorted order.
func (w *World) IDs() []string {
	return append([]string(nil), w.ids...)
}

// Len returns the number of entities.
func (w *World) Len() int {
	return len(w.entities)
}

// OfKind returns the ids of every entity of the given kind, sorted.
func (w *World) OfKind(kind types.EntityKind) []string {
	var out []string
	for _, id := range w.ids {
		if w.entities[id].Kind == kind {
			out = append(out, id)
		}
	}
	return out
}

// Actors returns every actor id, sorted.
func (w *World) Actors() []string {
	return w.OfKind(types.KindActor)
}

// Prop returns a free-form property of an entity.
func (w *World) Prop(id, key string) (any, bool) {
	e, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	v, ok := e.Props[key]
	return v, ok
}

// IntProp returns a numeric property as an int, or def when unset.
func (w *World) IntProp(id, key string, def int) int {
	v, ok := w.Prop(id, key)
	if !ok {
		return def
	}
	if n, ok := ToInt(v); ok {
		return n
	}
	return def
}

// BoolProp returns a boolean property, or def when unset.
func (w *World) BoolProp(id, key string, def bool) bool {
	v, ok := w.Prop(id, key)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// Parent returns the structural parent of an entity: an item's container,
// an actor's location, an exit's origin. Locations and locks have none.
func (w *World) Parent(id string) string {
	e, ok := w.entities[id]
	if !ok {
		return ""
	}
	switch e.Kind {
	case types.KindItem:
		return e.Item.Container
	case types.KindActor:
		return e.Actor.Location
	case types.KindExit:
		return e.Exit.From
	default:
		return ""
	}
}

// LocationOf walks the containment chain up to the enclosing location.
func (w *World) LocationOf(id string) string {
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		seen[id] = true
		e, ok := w.entities[id]
		if !ok {
			return ""
		}
		if e.Kind == types.KindLocation {
			return id
		}
		id = w.Parent(id)
	}
	return ""
}

// Contents returns the ids of items directly inside container, sorted.
func (w *World) Contents(container string) []string {
	var out []string
	for _, id := range w.ids {
		e := w.entities[id]
		if e.Kind == types.KindItem && e.Item.Container == container {
			out = append(out, id)
		}
	}
	return out
}

// Holds reports whether item is carried by actor, directly or inside
// another carried item.
func (w *World) Holds(actorID, itemID string) bool {
	seen := map[string]bool{}
	id := itemID
	for !seen[id] {
		seen[id] = true
		e, ok := w.entities[id]
		if !ok || e.Kind != types.KindItem {
			return false
		}
		if e.Item.Container == actorID {
			return true
		}
		id = e.Item.Container
	}
	return false
}

// ActorsAt returns the ids of actors in a location, sorted.
func (w *World) ActorsAt(location string) []string {
	var out []string
	for _, id := range w.ids {
		e := w.entities[id]
		if e.Kind == types.KindActor && e.Actor.Location == location {
			out = append(out, id)
		}
	}
	return out
}

// ExitsFrom returns the exits leaving a location, sorted by id.
func (w *World) ExitsFrom(location string) []*types.Entity {
	var out []*types.Entity
	for _, id := range w.ids {
		e := w.entities[id]
		if e.Kind == types.KindExit && e.Exit.From == location {
			out = append(out, e)
		}
	}
	return out
}

// ExitToward returns the exit leaving location in a direction.
func (w *World) ExitToward(location, direction string) (*types.Entity, bool) {
	for _, e := range w.ExitsFrom(location) {
		if e.Exit.Direction == direction {
			return e, true
		}
	}
	return nil, false
}

// ToInt converts a numeric property value to int, handling float64 from
// JSON and Lua.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
