package engine

import (
	"github.com/nathoo/fablecore/engine/events"
	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/types"
)

// Phase is a state of the turn orchestrator.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCommand
	PhaseActor
	PhaseEnvironment
	PhaseCondition
	PhaseTerminalCheck
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCommand:
		return "command"
	case PhaseActor:
		return "actor"
	case PhaseEnvironment:
		return "environment"
	case PhaseCondition:
		return "condition"
	case PhaseTerminalCheck:
		return "terminal_check"
	default:
		return "unknown"
	}
}

// Gate verbs used by the phases.
const (
	VerbEnvironment = "environment"
	VerbCondition   = "condition"
	VerbTerminal    = "terminal"
)

// runTurn drives every phase to completion for every actor. Nothing is
// removed until all phases have run, so actors that reach their floor in
// the same turn are all reported.
func (e *Engine) runTurn(result *types.Result) {
	e.phase = PhaseActor
	e.actorPhase(result)

	e.phase = PhaseEnvironment
	e.environmentPhase(result)

	e.phase = PhaseCondition
	e.conditionPhase(result)

	e.phase = PhaseTerminalCheck
	e.terminalCheckPhase(result)

	e.World.Turn++
	if removed := e.World.ApplyRemovals(); len(removed) > 0 {
		e.log.Debug("entities removed", "turn", e.World.Turn, "ids", removed)
	}
	e.phase = PhaseIdle

	result.TurnTaken = true
	result.Turn = e.World.Turn
	result.GameOver = e.gameOver
	e.log.Debug("turn complete", "turn", e.World.Turn, "reactions", len(result.Reactions))
}

// actorPhase fires due scheduled events, then offers every non-player
// actor an on_turn reaction.
func (e *Engine) actorPhase(result *types.Result) {
	for _, ev := range e.World.DueEvents(e.World.Turn + 1) {
		if _, ok := e.World.Get(ev.EntityID); !ok {
			continue
		}
		ctx := &registry.Context{World: e.World, Gate: e.Gate, ActorID: ev.EntityID}
		out := e.Registry.DispatchEvent(ctx, registry.Event{
			Name:     ev.Event,
			EntityID: ev.EntityID,
			ActorID:  ev.EntityID,
			Data:     map[string]any{"scheduled_turn": ev.Turn},
		})
		e.collect(result, ev.EntityID, PhaseActor, out)
	}

	ids := e.actorOrder()
	for _, id := range ids {
		res := e.Gate.Poll(id, "turn", id)
		e.collectMutation(result, PhaseActor, res)
	}
}

// actorOrder returns the non-player actors in the world's turn order.
func (e *Engine) actorOrder() []string {
	var ids []string
	for _, id := range e.World.Actors() {
		if id != types.PlayerID {
			ids = append(ids, id)
		}
	}
	if e.World.TurnOrder == types.OrderShuffled {
		e.rng.Shuffle(ids)
	}
	return ids
}

// environmentPhase applies location hazards to every actor: suffocation
// where the air is not breathable, then any standing hazard damage.
func (e *Engine) environmentPhase(result *types.Result) {
	for _, id := range e.World.Actors() {
		a, _ := e.World.Get(id)
		loc := a.Actor.Location

		if !e.World.BoolProp(loc, "breathable", true) {
			dmg := e.World.IntProp(loc, "suffocation_damage", 1)
			res := e.Gate.Apply(id, []types.Change{gate.Add("health", -dmg)}, VerbEnvironment, loc)
			e.collectMutation(result, PhaseEnvironment, res)
		}
		if dmg := e.World.IntProp(loc, "hazard_damage", 0); dmg > 0 {
			res := e.Gate.Apply(id, []types.Change{gate.Add("health", -dmg)}, VerbEnvironment, loc)
			e.collectMutation(result, PhaseEnvironment, res)
		}
	}
}

// conditionPhase decays every actor's timed conditions in one batched
// change per actor and fires on_condition_expired for each one that ran out.
func (e *Engine) conditionPhase(result *types.Result) {
	for _, id := range e.World.Actors() {
		a, _ := e.World.Get(id)
		if len(a.Actor.Conditions) == 0 {
			continue
		}

		var (
			kept    []types.Condition
			expired []string
			damage  int
		)
		for _, c := range a.Actor.Conditions {
			switch {
			case c.Remaining < 0:
				damage += c.Damage
				kept = append(kept, c)
			case c.Remaining == 0:
				expired = append(expired, c.Name)
			default:
				damage += c.Damage
				c.Remaining--
				if c.Remaining == 0 {
					expired = append(expired, c.Name)
				} else {
					kept = append(kept, c)
				}
			}
		}

		changes := []types.Change{gate.Set("conditions", kept)}
		if damage != 0 {
			changes = append(changes, gate.Add("health", -damage))
		}
		res := e.Gate.Apply(id, changes, VerbCondition, id)
		e.collectMutation(result, PhaseCondition, res)
		if !res.Applied {
			continue
		}

		for _, name := range expired {
			ctx := &registry.Context{World: e.World, Gate: e.Gate, ActorID: id}
			out := e.Registry.DispatchEvent(ctx, registry.Event{
				Name:     events.ConditionExpired,
				EntityID: id,
				Verb:     VerbCondition,
				ActorID:  id,
				Data:     map[string]any{"condition": name},
			})
			e.collect(result, id, PhaseCondition, out)
		}
	}
}

// terminalCheckPhase marks every actor at its health floor as terminal.
// The mark goes through the gate, so on_terminal reactions may veto it.
// Removal, if any, is left to those reactions.
func (e *Engine) terminalCheckPhase(result *types.Result) {
	for _, id := range e.World.Actors() {
		a, _ := e.World.Get(id)
		if a.Actor.Health > 0 || e.World.BoolProp(id, "terminal", false) {
			continue
		}
		res := e.Gate.Apply(id, []types.Change{gate.SetProp("terminal", true)}, VerbTerminal, id)
		e.collectMutation(result, PhaseTerminalCheck, res)
		if res.Applied {
			e.log.Debug("actor terminal", "actor", id, "turn", e.World.Turn+1)
			if id == types.PlayerID {
				e.gameOver = true
			}
		}
	}
}

// collect records a reaction outcome that has something to surface.
func (e *Engine) collect(result *types.Result, entityID string, p Phase, out types.Outcome) {
	if out.Message == "" && !out.Vetoed {
		return
	}
	data := map[string]any{"entity": entityID, "phase": p.String()}
	for k, v := range out.Data {
		data[k] = v
	}
	out.Data = data
	result.Reactions = append(result.Reactions, out)
}

// collectMutation records a gate result from a phase.
func (e *Engine) collectMutation(result *types.Result, p Phase, res types.MutationResult) {
	if res.Err != nil {
		e.log.Error("phase mutation failed", "phase", p.String(), "entity", res.EntityID, "error", res.Err)
		return
	}
	e.collect(result, res.EntityID, p, types.Outcome{
		Success: res.Applied,
		Message: res.Message,
		Vetoed:  res.Vetoed,
	})
}
