// Package core is the core-default tier: the verbs every game gets unless a
// game or library module overrides them.
package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/resolve"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Name is the registered module name.
const Name = "core"

func verb(text string, objectRequired bool, syns ...string) types.Word {
	return types.Word{Text: text, Class: types.ClassVerb, Synonyms: syns, ObjectRequired: objectRequired}
}

// Vocabulary returns the verbs the core module handles.
func Vocabulary() []types.Word {
	return []types.Word{
		verb("look", false, "l"),
		verb("examine", true, "x", "inspect", "read"),
		verb("go", false, "walk", "run"),
		verb("take", true, "get", "grab"),
		verb("drop", true, "discard"),
		verb("put", true, "place", "insert"),
		verb("inventory", false, "i", "inv"),
		verb("wait", false, "z"),
		verb("open", true),
		verb("close", true, "shut"),
		verb("lock", true),
		verb("unlock", true),
	}
}

// Module returns the core module descriptor.
func Module() registry.Module {
	return registry.Module{
		Name:       Name,
		Vocabulary: Vocabulary(),
		Handlers: map[string]registry.Handler{
			"look":      look,
			"examine":   examine,
			"go":        move,
			"take":      take,
			"drop":      drop,
			"put":       put,
			"inventory": inventory,
			"wait":      wait,
			"open":      openClose(false),
			"close":     openClose(true),
			"lock":      lockUnlock(true),
			"unlock":    lockUnlock(false),
		},
	}
}

// Ok is a successful outcome with a message.
func Ok(msg string) types.Outcome {
	return types.Outcome{Success: true, Message: msg}
}

// Fail is a failed outcome with a message. It consumes no turn.
func Fail(msg string) types.Outcome {
	return types.Outcome{Message: msg}
}

// fromMutation turns a refused gate result into a failed outcome.
func fromMutation(res types.MutationResult, fallback string) types.Outcome {
	if res.Err != nil {
		return types.Outcome{Message: fallback, Data: map[string]any{"error": res.Err.Error()}}
	}
	msg := res.Message
	if msg == "" {
		msg = fallback
	}
	return types.Outcome{Message: msg, Vetoed: res.Vetoed}
}

// directObject resolves the command's direct object for the acting actor.
func directObject(ctx *registry.Context, cmd types.Command) (string, *types.Outcome) {
	if cmd.DirectObject == nil {
		out := Fail(fmt.Sprintf("What do you want to %s?", cmd.Verb.Text))
		return "", &out
	}
	id, err := resolve.Phrase(ctx.World, ctx.ActorID, cmd.DirectAdjective, cmd.DirectObject)
	if err != nil {
		out := Fail(capitalize(err.Error()) + ".")
		return "", &out
	}
	return id, nil
}

// indirectObject resolves the command's indirect object, if any.
func indirectObject(ctx *registry.Context, cmd types.Command) (string, *types.Outcome) {
	if cmd.IndirectObject == nil {
		return "", nil
	}
	id, err := resolve.Phrase(ctx.World, ctx.ActorID, cmd.IndirectAdjective, cmd.IndirectObject)
	if err != nil {
		out := Fail(capitalize(err.Error()) + ".")
		return "", &out
	}
	return id, nil
}

// name returns the lowercase display name of an entity for prose.
func name(w *state.World, id string) string {
	return strings.ToLower(resolve.DisplayName(w, id))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Describe returns the standard description of a location as seen by an
// actor: description, visible things, exits.
func Describe(w *state.World, actorID, locID string) string {
	loc, ok := w.Get(locID)
	if !ok {
		return "You are somewhere unknown."
	}

	var lines []string
	if loc.Name != "" {
		lines = append(lines, loc.Name)
	}
	if loc.Description != "" {
		lines = append(lines, loc.Description)
	}

	var names []string
	for _, id := range w.Contents(locID) {
		names = append(names, resolve.DisplayName(w, id))
	}
	for _, id := range w.ActorsAt(locID) {
		if id != actorID {
			names = append(names, resolve.DisplayName(w, id))
		}
	}
	if len(names) > 0 {
		lines = append(lines, "You see: "+strings.Join(names, ", ")+".")
	}

	var dirs []string
	for _, x := range w.ExitsFrom(locID) {
		dirs = append(dirs, x.Exit.Direction)
	}
	if len(dirs) > 0 {
		sort.Strings(dirs)
		lines = append(lines, "Exits: "+strings.Join(dirs, ", ")+".")
	}
	return strings.Join(lines, "\n")
}

func look(ctx *registry.Context, cmd types.Command, next registry.Next) types.Outcome {
	if cmd.DirectObject != nil {
		return examine(ctx, cmd, next)
	}
	a, _ := ctx.World.Get(ctx.ActorID)
	out := Ok(Describe(ctx.World, ctx.ActorID, a.Actor.Location))
	out.Data = map[string]any{"location": a.Actor.Location}
	return out
}

func examine(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
	id, fail := directObject(ctx, cmd)
	if fail != nil {
		return *fail
	}
	e, _ := ctx.World.Get(id)

	desc := e.Description
	if desc == "" {
		desc = fmt.Sprintf("You see nothing special about the %s.", name(ctx.World, id))
	}
	if e.Kind == types.KindItem && !ctx.World.BoolProp(id, "closed", false) {
		if inside := ctx.World.Contents(id); len(inside) > 0 {
			names := make([]string, len(inside))
			for i, c := range inside {
				names[i] = resolve.DisplayName(ctx.World, c)
			}
			desc += "\nInside: " + strings.Join(names, ", ") + "."
		}
	}
	out := Ok(desc)
	out.Data = map[string]any{"entity": id}
	return out
}

func inventory(ctx *registry.Context, _ types.Command, _ registry.Next) types.Outcome {
	held := ctx.World.Contents(ctx.ActorID)
	if len(held) == 0 {
		return Ok("You are carrying nothing.")
	}
	names := make([]string, len(held))
	for i, id := range held {
		names[i] = resolve.DisplayName(ctx.World, id)
	}
	out := Ok("You are carrying: " + strings.Join(names, ", ") + ".")
	out.Data = map[string]any{"items": held}
	return out
}

func wait(*registry.Context, types.Command, registry.Next) types.Outcome {
	return Ok("Time passes.")
}
