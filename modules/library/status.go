package library

import (
	"fmt"
	"strings"

	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/resolve"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Status wraps the lower-tier examine with an actor's condition.
func Status() registry.Module {
	return registry.Module{
		Name:     "status",
		Handlers: map[string]registry.Handler{"examine": examineStatus},
	}
}

func examineStatus(ctx *registry.Context, cmd types.Command, next registry.Next) types.Outcome {
	out := next()
	if !out.Success {
		return out
	}
	id, _ := out.Data["entity"].(string)
	if line := StatusLine(ctx.World, id); line != "" {
		out.Message += "\n" + line
	}
	return out
}

// StatusLine describes an actor's health and conditions, or "" for
// anything that is not an actor.
func StatusLine(w *state.World, id string) string {
	e, ok := w.Get(id)
	if !ok || e.Actor == nil {
		return ""
	}
	subject, verb := resolve.DisplayName(w, id), "is"
	if id == types.PlayerID {
		subject, verb = "You", "are"
	}

	var parts []string
	switch {
	case w.BoolProp(id, "terminal", false) || e.Actor.Health <= 0:
		parts = append(parts, fmt.Sprintf("%s %s down.", subject, verb))
	case e.Actor.MaxHealth > 0 && e.Actor.Health*4 <= e.Actor.MaxHealth:
		parts = append(parts, fmt.Sprintf("%s %s badly wounded.", subject, verb))
	case e.Actor.MaxHealth > 0 && e.Actor.Health < e.Actor.MaxHealth:
		parts = append(parts, fmt.Sprintf("%s %s hurt.", subject, verb))
	}
	if len(e.Actor.Conditions) > 0 {
		names := make([]string, len(e.Actor.Conditions))
		for i, c := range e.Actor.Conditions {
			names[i] = c.Name
		}
		parts = append(parts, fmt.Sprintf("%s %s %s.", subject, verb, strings.Join(names, ", ")))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ")
}
