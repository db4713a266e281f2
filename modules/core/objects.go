package core

import (
	"fmt"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/types"
)

func take(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
	id, fail := directObject(ctx, cmd)
	if fail != nil {
		return *fail
	}
	e, _ := ctx.World.Get(id)
	if e.Kind != types.KindItem || !e.Item.Portable {
		return Fail("You can't take that.")
	}
	if e.Item.Container == ctx.ActorID {
		return Fail("You already have that.")
	}

	res := ctx.Gate.Apply(id, []types.Change{gate.Set("container", ctx.ActorID)}, "take", ctx.ActorID)
	if !res.Applied {
		return fromMutation(res, "You can't take that.")
	}
	return withMessage(fmt.Sprintf("You take the %s.", name(ctx.World, id)), res)
}

func drop(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
	id, fail := directObject(ctx, cmd)
	if fail != nil {
		return *fail
	}
	if !ctx.World.Holds(ctx.ActorID, id) {
		return Fail("You don't have that.")
	}
	a, _ := ctx.World.Get(ctx.ActorID)

	res := ctx.Gate.Apply(id, []types.Change{gate.Set("container", a.Actor.Location)}, "drop", ctx.ActorID)
	if !res.Applied {
		return fromMutation(res, "You can't drop that.")
	}
	return withMessage(fmt.Sprintf("You drop the %s.", name(ctx.World, id)), res)
}

func put(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
	id, fail := directObject(ctx, cmd)
	if fail != nil {
		return *fail
	}
	if cmd.IndirectObject == nil {
		return Fail(fmt.Sprintf("Put the %s where?", name(ctx.World, id)))
	}
	if cmd.Preposition == nil || (cmd.Preposition.Text != "in" && cmd.Preposition.Text != "on") {
		return Fail("You can put things in or on something.")
	}
	into, fail := indirectObject(ctx, cmd)
	if fail != nil {
		return *fail
	}
	if !ctx.World.Holds(ctx.ActorID, id) {
		return Fail("You don't have that.")
	}
	target, _ := ctx.World.Get(into)
	if target.Kind != types.KindItem || !ctx.World.BoolProp(into, "receptacle", false) {
		return Fail(fmt.Sprintf("You can't put anything %s the %s.", cmd.Preposition.Text, name(ctx.World, into)))
	}
	if ctx.World.BoolProp(into, "closed", false) {
		return Fail(fmt.Sprintf("The %s is closed.", name(ctx.World, into)))
	}

	res := ctx.Gate.Apply(id, []types.Change{gate.Set("container", into)}, "put", ctx.ActorID)
	if !res.Applied {
		return fromMutation(res, "That won't fit.")
	}
	return withMessage(fmt.Sprintf("You put the %s %s the %s.", name(ctx.World, id), cmd.Preposition.Text, name(ctx.World, into)), res)
}

// withMessage is a success outcome that also carries reaction messages.
func withMessage(msg string, res types.MutationResult) types.Outcome {
	if res.Message != "" {
		msg += "\n" + res.Message
	}
	return Ok(msg)
}
