package core

import (
	"fmt"
	"slices"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// openClose toggles the "closed" property of an openable item. An item is
// openable when it carries the property at all. Items may name a lock in
// their "lock" property; a locked item cannot be opened.
func openClose(closing bool) registry.Handler {
	verb := "open"
	if closing {
		verb = "close"
	}
	return func(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
		id, fail := directObject(ctx, cmd)
		if fail != nil {
			return *fail
		}
		if _, ok := ctx.World.Prop(id, "closed"); !ok {
			return Fail(fmt.Sprintf("You can't %s that.", verb))
		}
		n := name(ctx.World, id)
		if ctx.World.BoolProp(id, "closed", false) == closing {
			if closing {
				return Fail(fmt.Sprintf("The %s is already closed.", n))
			}
			return Fail(fmt.Sprintf("The %s is already open.", n))
		}
		if !closing {
			if lockID := lockOf(ctx.World, id); lockID != "" {
				if l, _ := ctx.World.Get(lockID); l.Lock.Locked {
					return Fail(fmt.Sprintf("The %s is locked.", n))
				}
			}
		}

		res := ctx.Gate.Apply(id, []types.Change{gate.SetProp("closed", closing)}, verb, ctx.ActorID)
		if !res.Applied {
			return fromMutation(res, fmt.Sprintf("The %s won't budge.", n))
		}
		if closing {
			return withMessage(fmt.Sprintf("You close the %s.", n), res)
		}
		return withMessage(fmt.Sprintf("You open the %s.", n), res)
	}
}

// lockUnlock handles "lock X with K" and "unlock X with K". X may be a lock,
// an exit with a lock, or an item naming a lock. Without an explicit key the
// first matching key the actor carries is used.
func lockUnlock(locking bool) registry.Handler {
	verb := "unlock"
	if locking {
		verb = "lock"
	}
	return func(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
		id, fail := directObject(ctx, cmd)
		if fail != nil {
			return *fail
		}
		lockID := lockOf(ctx.World, id)
		if lockID == "" {
			return Fail(fmt.Sprintf("You can't %s that.", verb))
		}
		l, _ := ctx.World.Get(lockID)
		n := name(ctx.World, id)
		if l.Lock.Locked == locking {
			return Fail(fmt.Sprintf("The %s is already %sed.", n, verb))
		}

		keyID, fail := indirectObject(ctx, cmd)
		if fail != nil {
			return *fail
		}
		if keyID == "" {
			keyID = heldKey(ctx.World, ctx.ActorID, l.Lock.Keys)
			if keyID == "" {
				return Fail(fmt.Sprintf("You have nothing to %s it with.", verb))
			}
		}
		if !ctx.World.Holds(ctx.ActorID, keyID) {
			return Fail(fmt.Sprintf("You don't have the %s.", name(ctx.World, keyID)))
		}
		if !slices.Contains(l.Lock.Keys, keyID) {
			return Fail(fmt.Sprintf("The %s doesn't fit.", name(ctx.World, keyID)))
		}

		res := ctx.Gate.Apply(lockID, []types.Change{gate.Set("locked", locking)}, verb, ctx.ActorID)
		if !res.Applied {
			return fromMutation(res, fmt.Sprintf("The %s won't turn.", name(ctx.World, keyID)))
		}
		out := withMessage(fmt.Sprintf("You %s the %s with the %s.", verb, n, name(ctx.World, keyID)), res)
		out.Data = map[string]any{"lock": lockID, "key": keyID}
		return out
	}
}

// lockOf returns the lock guarding an entity, or "".
func lockOf(w *state.World, id string) string {
	e, ok := w.Get(id)
	if !ok {
		return ""
	}
	switch e.Kind {
	case types.KindLock:
		return id
	case types.KindExit:
		return e.Exit.Lock
	}
	if v, ok := e.Props["lock"].(string); ok {
		if l, ok := w.Get(v); ok && l.Kind == types.KindLock {
			return v
		}
	}
	return ""
}

func heldKey(w *state.World, actorID string, keys []string) string {
	for _, k := range keys {
		if w.Holds(actorID, k) {
			return k
		}
	}
	return ""
}
