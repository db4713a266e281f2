package core

import (
	"fmt"
	"strings"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/types"
)

// move handles "go <direction>" and bare directions. Leaving through an
// exit polls the exit with "traverse" first, so exit behaviors can block
// passage without any change being proposed.
func move(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
	if cmd.Direction == nil {
		return Fail("Go where?")
	}
	dir := cmd.Direction.Text
	a, _ := ctx.World.Get(ctx.ActorID)

	exit, ok := ctx.World.ExitToward(a.Actor.Location, dir)
	if !ok {
		return Fail("You can't go that way.")
	}
	if lockID := exit.Exit.Lock; lockID != "" {
		if l, ok := ctx.World.Get(lockID); ok && l.Lock.Locked {
			return Fail(fmt.Sprintf("The %s is locked.", name(ctx.World, lockID)))
		}
	}

	poll := ctx.Gate.Apply(exit.ID, nil, "traverse", ctx.ActorID)
	if !poll.Applied {
		return fromMutation(poll, "You can't go that way.")
	}

	dest := exit.Exit.Destination
	res := ctx.Gate.Apply(ctx.ActorID, []types.Change{gate.Set("location", dest)}, "go", ctx.ActorID)
	if !res.Applied {
		return fromMutation(res, "You can't go that way.")
	}

	var lines []string
	for _, m := range []string{poll.Message, res.Message} {
		if m != "" {
			lines = append(lines, m)
		}
	}
	lines = append(lines, Describe(ctx.World, ctx.ActorID, dest))
	out := Ok(strings.Join(lines, "\n"))
	out.Data = map[string]any{"location": dest, "direction": dir}
	return out
}
