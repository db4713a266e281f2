package library

import (
	"fmt"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Damage computes a strike: max(1, attack - defense). Attack defaults to 1
// and defense to 0 when the actors do not set them.
func Damage(w *state.World, attacker, defender string) int {
	dmg := w.IntProp(attacker, "attack", 1) - w.IntProp(defender, "defense", 0)
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// Strike deals one blow through the gate with verb "attack".
func Strike(ctx *registry.Context, attacker, defender string) (int, types.MutationResult) {
	dmg := Damage(ctx.World, attacker, defender)
	res := ctx.Gate.Apply(defender, []types.Change{gate.Add("health", -dmg)}, "attack", attacker)
	return dmg, res
}

// Combat provides the attack verb.
func Combat() registry.Module {
	return registry.Module{
		Name: "combat",
		Vocabulary: []types.Word{
			{Text: "attack", Class: types.ClassVerb, Synonyms: []string{"hit", "fight", "kill", "strike"}, ObjectRequired: true},
		},
		Handlers: map[string]registry.Handler{"attack": attack},
	}
}

func attack(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
	if cmd.DirectObject == nil {
		return fail("Attack what?")
	}
	target, err := resolvePhrase(ctx, cmd.DirectAdjective, cmd.DirectObject)
	if err != nil {
		return fail("%s.", capitalize(err.Error()))
	}
	if target == ctx.ActorID {
		return fail("You think better of it.")
	}
	e, _ := ctx.World.Get(target)
	if e.Kind != types.KindActor {
		return fail("Violence isn't the answer to this one.")
	}
	if !alive(ctx.World, target) {
		return fail("The %s is already beyond help.", name(ctx.World, target))
	}

	dmg, res := Strike(ctx, ctx.ActorID, target)
	if !res.Applied {
		if res.Message != "" {
			return types.Outcome{Message: res.Message, Vetoed: res.Vetoed}
		}
		return fail("Your blow has no effect.")
	}
	msg := fmt.Sprintf("You strike the %s! (%d damage)", name(ctx.World, target), dmg)
	if res.Message != "" {
		msg += "\n" + res.Message
	}
	return types.Outcome{
		Success: true,
		Message: msg,
		Data:    map[string]any{"target": target, "damage": dmg},
	}
}
