// Package library holds the shared-library tier: combat, dialogue, status
// descriptions, and the stock behavior modules entities can list.
package library

import (
	"fmt"
	"strings"

	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/resolve"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Modules returns every library module in registration order.
func Modules() []registry.Module {
	return []registry.Module{
		Combat(),
		Dialogue(),
		Status(),
		Hostile(),
		Venomous(),
		Immovable(),
		Guarded(),
		Mortal(),
		Recovering(),
	}
}

func name(w *state.World, id string) string {
	return strings.ToLower(resolve.DisplayName(w, id))
}

func fail(format string, args ...any) types.Outcome {
	return types.Outcome{Message: fmt.Sprintf(format, args...)}
}

// alive reports whether an actor exists, has health left, and has not been
// marked terminal.
func alive(w *state.World, id string) bool {
	e, ok := w.Get(id)
	if !ok || e.Actor == nil {
		return false
	}
	return e.Actor.Health > 0 && !w.BoolProp(id, "terminal", false)
}

// together reports whether two actors share a location.
func together(w *state.World, a, b string) bool {
	ea, ok := w.Get(a)
	if !ok || ea.Actor == nil {
		return false
	}
	eb, ok := w.Get(b)
	if !ok || eb.Actor == nil {
		return false
	}
	return ea.Actor.Location == eb.Actor.Location
}
