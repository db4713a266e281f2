package library

import (
	"fmt"

	"github.com/nathoo/fablecore/engine/events"
	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/types"
)

// Hostile actors attack the player whenever they share a location.
func Hostile() registry.Module {
	return registry.Module{
		Name: "hostile",
		Reactions: map[string]registry.Reaction{
			events.Turn: func(ctx *registry.Context, ev registry.Event) types.Outcome {
				self := ev.EntityID
				if !alive(ctx.World, self) || !alive(ctx.World, types.PlayerID) || !together(ctx.World, self, types.PlayerID) {
					return types.Outcome{}
				}
				dmg, res := Strike(ctx, self, types.PlayerID)
				if !res.Applied {
					return types.Outcome{Message: res.Message}
				}
				return types.Outcome{
					Success: true,
					Message: joinLines(fmt.Sprintf("The %s attacks you! (%d damage)", name(ctx.World, self), dmg), res.Message),
				}
			},
		},
	}
}

// Venomous actors poison a co-located player who is not already poisoned.
// The actor's venom_turns and venom_damage properties shape the condition.
func Venomous() registry.Module {
	return registry.Module{
		Name: "venomous",
		Reactions: map[string]registry.Reaction{
			events.Turn: func(ctx *registry.Context, ev registry.Event) types.Outcome {
				self := ev.EntityID
				if !alive(ctx.World, self) || !together(ctx.World, self, types.PlayerID) {
					return types.Outcome{}
				}
				p := ctx.World.Player()
				for _, c := range p.Actor.Conditions {
					if c.Name == "poisoned" {
						return types.Outcome{}
					}
				}
				cond := types.Condition{
					Name:      "poisoned",
					Remaining: ctx.World.IntProp(self, "venom_turns", 3),
					Damage:    ctx.World.IntProp(self, "venom_damage", 1),
				}
				res := ctx.Gate.Apply(types.PlayerID, []types.Change{gate.AddCondition(cond)}, "poison", self)
				if !res.Applied {
					return types.Outcome{Message: res.Message}
				}
				return types.Outcome{
					Success: true,
					Message: joinLines(fmt.Sprintf("The %s bites you. You feel poison spreading.", name(ctx.World, self)), res.Message),
				}
			},
		},
	}
}

// Immovable things refuse to be taken.
func Immovable() registry.Module {
	return registry.Module{
		Name: "immovable",
		Reactions: map[string]registry.Reaction{
			events.Before("take"): func(ctx *registry.Context, ev registry.Event) types.Outcome {
				return types.Outcome{Vetoed: true, Message: fmt.Sprintf("The %s won't budge.", name(ctx.World, ev.EntityID))}
			},
		},
	}
}

// Guarded exits refuse passage while the actor named in their "guard"
// property stands alive at the exit's origin.
func Guarded() registry.Module {
	return registry.Module{
		Name: "guarded",
		Reactions: map[string]registry.Reaction{
			events.Before("traverse"): func(ctx *registry.Context, ev registry.Event) types.Outcome {
				x, ok := ctx.World.Get(ev.EntityID)
				if !ok || x.Exit == nil {
					return types.Outcome{}
				}
				guard, _ := x.Props["guard"].(string)
				g, ok := ctx.World.Get(guard)
				if !ok || g.Actor == nil || !alive(ctx.World, guard) || g.Actor.Location != x.Exit.From {
					return types.Outcome{}
				}
				return types.Outcome{Vetoed: true, Message: fmt.Sprintf("The %s blocks your way.", name(ctx.World, guard))}
			},
		},
	}
}

// Mortal actors are removed from the world after they reach a terminal
// state. Removal happens between turns.
func Mortal() registry.Module {
	return registry.Module{
		Name: "mortal",
		Reactions: map[string]registry.Reaction{
			events.After("terminal"): func(ctx *registry.Context, ev registry.Event) types.Outcome {
				if ev.EntityID == types.PlayerID {
					return types.Outcome{Message: "You collapse."}
				}
				if err := ctx.World.ScheduleRemoval(ev.EntityID); err != nil {
					return types.Outcome{}
				}
				return types.Outcome{Message: fmt.Sprintf("The %s collapses.", name(ctx.World, ev.EntityID))}
			},
		},
	}
}

// Recovering actors are told when a condition wears off.
func Recovering() registry.Module {
	return registry.Module{
		Name: "recovering",
		Reactions: map[string]registry.Reaction{
			events.ConditionExpired: func(ctx *registry.Context, ev registry.Event) types.Outcome {
				cond, _ := ev.Data["condition"].(string)
				if ev.EntityID == types.PlayerID {
					return types.Outcome{Message: fmt.Sprintf("You are no longer %s.", cond)}
				}
				return types.Outcome{Message: fmt.Sprintf("The %s is no longer %s.", name(ctx.World, ev.EntityID), cond)}
			},
		},
	}
}

func joinLines(a, b string) string {
	if b == "" {
		return a
	}
	return a + "\n" + b
}
