// Package gate is the single code path that changes entity state. Every
// change is validated against a private copy, offered to the target's
// reactions for veto, and then committed in one step.
package gate

import (
	"log/slog"

	"github.com/nathoo/fablecore/engine/events"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Dispatcher delivers events to an entity's bound reactions.
type Dispatcher interface {
	DispatchEvent(ctx *registry.Context, ev registry.Event) types.Outcome
}

// Gate applies changes to the entities of one world.
type Gate struct {
	world *state.World
	reg   Dispatcher
	log   *slog.Logger

	// Trace, when set, receives every result as it is produced.
	Trace func(verb string, res types.MutationResult)
}

// New returns a gate over w dispatching through reg.
func New(w *state.World, reg Dispatcher, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{world: w, reg: reg, log: log}
}

// Apply proposes changes to one entity on behalf of actorID.
//
//  1. Validate every change against a copy of the entity.
//  2. Poll on_<verb> reactions; a veto aborts with nothing changed.
//  3. Re-apply onto the current entity and commit the copy.
//  4. Notify after_<verb> reactions; their messages are appended, their
//     vetoes ignored.
//
// An empty change list is a pure poll: nothing is committed, but the
// result reports whether the action was allowed.
func (g *Gate) Apply(entityID string, changes []types.Change, verb, actorID string) types.MutationResult {
	res := types.MutationResult{EntityID: entityID}

	target, ok := g.world.Get(entityID)
	if !ok {
		res.Err = &ChangeError{EntityID: entityID, Reason: state.ErrNoSuchEntity.Error()}
		return g.finish(verb, res)
	}

	// 1. Validate.
	if _, err := g.stage(target, changes); err != nil {
		res.Err = err
		g.log.Error("mutation rejected", "entity", entityID, "verb", verb, "error", err)
		return g.finish(verb, res)
	}

	ctx := &registry.Context{World: g.world, Gate: g, ActorID: actorID}
	ev := registry.Event{
		Name:     events.Before(verb),
		EntityID: entityID,
		Verb:     verb,
		ActorID:  actorID,
		Changes:  changes,
	}

	// 2. Veto poll.
	poll := g.reg.DispatchEvent(ctx, ev)
	if poll.Vetoed {
		res.Vetoed = true
		res.Message = poll.Message
		return g.finish(verb, res)
	}
	res.Message = poll.Message

	if len(changes) == 0 {
		res.Applied = true
		return g.finish(verb, res)
	}

	// 3. Commit. Reactions may have changed the entity through nested
	// gate calls, so stage again from its current state.
	target, ok = g.world.Get(entityID)
	if !ok {
		res.Err = &ChangeError{EntityID: entityID, Reason: state.ErrNoSuchEntity.Error()}
		return g.finish(verb, res)
	}
	staged, err := g.stage(target, changes)
	if err != nil {
		res.Err = err
		g.log.Error("mutation rejected after poll", "entity", entityID, "verb", verb, "error", err)
		return g.finish(verb, res)
	}
	*target = staged
	res.Applied = true

	// 4. Notify.
	ev.Name = events.After(verb)
	if after := g.reg.DispatchEvent(ctx, ev); after.Message != "" {
		if res.Message != "" {
			res.Message += "\n"
		}
		res.Message += after.Message
	}
	return g.finish(verb, res)
}

// Poll asks the entity's reactions whether verb may proceed without
// proposing any change.
func (g *Gate) Poll(entityID, verb, actorID string) types.MutationResult {
	return g.Apply(entityID, nil, verb, actorID)
}

// stage applies changes to a copy of target and returns the copy.
func (g *Gate) stage(target *types.Entity, changes []types.Change) (types.Entity, error) {
	staged := state.Clone(target)
	for _, c := range changes {
		if err := applyChange(g.world, &staged, c); err != nil {
			return types.Entity{}, err
		}
	}
	return staged, nil
}

func (g *Gate) finish(verb string, res types.MutationResult) types.MutationResult {
	if g.Trace != nil {
		g.Trace(verb, res)
	}
	return res
}
