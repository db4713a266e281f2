package state

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/nathoo/fablecore/types"
)

// Validate checks referential integrity of the whole world: the player
// exists, every variant matches its kind, every structural reference
// resolves to an entity of the expected kind, and containment is acyclic.
// All problems are reported together.
func (w *World) Validate() error {
	el := errors.NewErrorList()

	if p, ok := w.entities[types.PlayerID]; !ok {
		el.Add(fmt.Errorf("player actor %q is not defined", types.PlayerID))
	} else if p.Kind != types.KindActor {
		el.Add(fmt.Errorf("%q must be an actor, got %s", types.PlayerID, p.Kind))
	}

	for _, id := range w.ids {
		el.Add(w.validateEntity(w.entities[id]))
	}

	for _, id := range w.OfKind(types.KindItem) {
		if w.inCycle(id) {
			el.Add(fmt.Errorf("item %q: containment cycle", id))
		}
	}

	return el.Err()
}

func (w *World) validateEntity(e *types.Entity) error {
	if err := checkVariant(e); err != nil {
		return err
	}

	el := errors.NewErrorList()
	switch e.Kind {
	case types.KindActor:
		el.Add(w.expectKind(e.ID, "location", e.Actor.Location, types.KindLocation))
		if e.Actor.MaxHealth > 0 && e.Actor.Health > e.Actor.MaxHealth {
			el.Add(fmt.Errorf("actor %q: health %d exceeds max_health %d", e.ID, e.Actor.Health, e.Actor.MaxHealth))
		}
	case types.KindItem:
		el.Add(w.expectKind(e.ID, "container", e.Item.Container,
			types.KindLocation, types.KindActor, types.KindItem))
	case types.KindLock:
		for _, key := range e.Lock.Keys {
			el.Add(w.expectKind(e.ID, "key", key, types.KindItem))
		}
	case types.KindExit:
		if e.Exit.Direction == "" {
			el.Add(fmt.Errorf("exit %q: direction is required", e.ID))
		}
		el.Add(w.expectKind(e.ID, "from", e.Exit.From, types.KindLocation))
		el.Add(w.expectKind(e.ID, "destination", e.Exit.Destination, types.KindLocation))
		if e.Exit.Lock != "" {
			el.Add(w.expectKind(e.ID, "lock", e.Exit.Lock, types.KindLock))
		}
	}
	return el.Err()
}

// checkVariant verifies that exactly the variant matching Kind is set.
func checkVariant(e *types.Entity) error {
	set := map[types.EntityKind]bool{
		types.KindLocation: e.Location != nil,
		types.KindItem:     e.Item != nil,
		types.KindActor:    e.Actor != nil,
		types.KindLock:     e.Lock != nil,
		types.KindExit:     e.Exit != nil,
	}
	if _, ok := set[e.Kind]; !ok {
		return fmt.Errorf("entity %q: unknown kind %q", e.ID, e.Kind)
	}
	for kind, present := range set {
		if present != (kind == e.Kind) {
			return fmt.Errorf("entity %q: %s variant does not match kind %s", e.ID, kind, e.Kind)
		}
	}
	return nil
}

// expectKind checks that ref names an entity of one of the given kinds.
func (w *World) expectKind(owner, field, ref string, kinds ...types.EntityKind) error {
	if ref == "" {
		return fmt.Errorf("%q: %s is required", owner, field)
	}
	target, ok := w.entities[ref]
	if !ok {
		return fmt.Errorf("%q: %s %q: %w", owner, field, ref, ErrNoSuchEntity)
	}
	for _, k := range kinds {
		if target.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%q: %s %q is a %s", owner, field, ref, target.Kind)
}

// inCycle reports whether following item containers from id revisits id.
func (w *World) inCycle(id string) bool {
	seen := map[string]bool{}
	cur := id
	for {
		e, ok := w.entities[cur]
		if !ok || e.Kind != types.KindItem {
			return false
		}
		if seen[cur] {
			return true
		}
		seen[cur] = true
		cur = e.Item.Container
	}
}

// CheckContainer reports whether placing item inside container is
// structurally valid: the container exists, can hold items, and is not the
// item itself or nested inside it.
func (w *World) CheckContainer(itemID, container string) error {
	if err := w.expectKind(itemID, "container", container,
		types.KindLocation, types.KindActor, types.KindItem); err != nil {
		return err
	}
	for cur := container; cur != ""; {
		if cur == itemID {
			return fmt.Errorf("%q: placing it in %q creates a containment cycle", itemID, container)
		}
		e, ok := w.entities[cur]
		if !ok || e.Kind != types.KindItem {
			break
		}
		cur = e.Item.Container
	}
	return nil
}

// CheckLocation reports whether id names a location.
func (w *World) CheckLocation(owner, id string) error {
	return w.expectKind(owner, "location", id, types.KindLocation)
}

// CheckRef reports whether id names an entity of one of the given kinds.
func (w *World) CheckRef(owner, field, id string, kinds ...types.EntityKind) error {
	return w.expectKind(owner, field, id, kinds...)
}
