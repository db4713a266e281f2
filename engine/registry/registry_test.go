package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/fablecore/engine/parser"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

var takeWord = types.Word{Text: "take", Class: types.ClassVerb, Synonyms: []string{"get"}}

func say(msg string) Handler {
	return func(*Context, types.Command, Next) types.Outcome {
		return types.Outcome{Success: true, Message: msg}
	}
}

func react(msg string, veto bool) Reaction {
	return func(*Context, Event) types.Outcome {
		return types.Outcome{Success: !veto, Message: msg, Vetoed: veto}
	}
}

func command(t *testing.T, r *Registry, input string) types.Command {
	t.Helper()
	cmd, err := parser.Parse(r.Vocabulary(), input)
	require.NoError(t, err)
	return cmd
}

func threeTiers(t *testing.T, game Handler) *Registry {
	t.Helper()
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "game", Handlers: map[string]Handler{"take": game}}, TierGame))
	require.NoError(t, r.Register(Module{Name: "library", Handlers: map[string]Handler{
		"take": func(_ *Context, _ types.Command, next Next) types.Outcome {
			out := next()
			out.Message = "library(" + out.Message + ")"
			return out
		},
	}}, TierLibrary))
	require.NoError(t, r.Register(Module{
		Name:       "core",
		Vocabulary: []types.Word{takeWord, {Text: "key", Class: types.ClassNoun}},
		Handlers:   map[string]Handler{"take": say("core")},
	}, TierCore))
	return r
}

func TestDispatchCommand_GameTierOnly(t *testing.T) {
	r := threeTiers(t, say("game"))
	out := r.DispatchCommand(&Context{}, command(t, r, "take key"))
	assert.Equal(t, "game", out.Message)
	assert.Equal(t, []string{"game", "library", "core"}, r.Chain("take"))
}

func TestDispatchCommand_DelegationRunsNextTierOnce(t *testing.T) {
	calls := 0
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "game", Handlers: map[string]Handler{
		"take": func(_ *Context, _ types.Command, next Next) types.Outcome {
			next()
			return next()
		},
	}}, TierGame))
	require.NoError(t, r.Register(Module{Name: "core", Vocabulary: []types.Word{takeWord},
		Handlers: map[string]Handler{"take": func(*Context, types.Command, Next) types.Outcome {
			calls++
			return types.Outcome{Success: true, Message: "taken"}
		}}}, TierCore))

	out := r.DispatchCommand(&Context{}, command(t, r, "get"))
	assert.Equal(t, "taken", out.Message)
	assert.Equal(t, 1, calls)
}

func TestDispatchCommand_WrapsLowerTier(t *testing.T) {
	r := threeTiers(t, func(_ *Context, _ types.Command, next Next) types.Outcome {
		return next()
	})
	out := r.DispatchCommand(&Context{}, command(t, r, "take key"))
	assert.Equal(t, "library(core)", out.Message)
}

func TestDispatchCommand_ChainExhausted(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "core", Vocabulary: []types.Word{takeWord},
		Handlers: map[string]Handler{"take": func(_ *Context, _ types.Command, next Next) types.Outcome {
			return next()
		}}}, TierCore))
	out := r.DispatchCommand(&Context{}, command(t, r, "take"))
	assert.True(t, out.Unrecognized)
}

func TestDispatchCommand_Unrecognized(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "core", Vocabulary: []types.Word{
		{Text: "dance", Class: types.ClassVerb},
	}}, TierCore))
	out := r.DispatchCommand(&Context{}, command(t, r, "dance"))
	assert.True(t, out.Unrecognized)
	assert.False(t, out.Success)
	assert.Equal(t, "dance", out.Data["verb"])
}

func TestRegister_ConfigErrors(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "game", Vocabulary: []types.Word{
		{Text: "light", Class: types.ClassVerb},
	}}, TierGame))

	var ce *ConfigError
	err := r.Register(Module{Name: "library", Vocabulary: []types.Word{
		{Text: "light", Class: types.ClassAdjective},
	}}, TierLibrary)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "library", ce.Module)

	assert.ErrorAs(t, r.Register(Module{Name: "game"}, TierGame), &ce, "duplicate name")
	assert.ErrorAs(t, r.Register(Module{Name: ""}, TierCore), &ce)

	require.NoError(t, r.Register(Module{Name: "core"}, TierCore))
	err = r.Register(Module{Name: "late"}, TierGame)
	require.ErrorAs(t, err, &ce, "out of precedence order")
	assert.Contains(t, err.Error(), "game tier registered after core tier")
}

func TestRegister_SameWordMergesSynonyms(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "game", Vocabulary: []types.Word{
		{Text: "take", Class: types.ClassVerb, Synonyms: []string{"pinch"}},
	}}, TierGame))
	require.NoError(t, r.Register(Module{Name: "core", Vocabulary: []types.Word{takeWord}}, TierCore))

	for _, tok := range []string{"take", "get", "pinch"} {
		w, ok := r.Vocabulary().Lookup(tok)
		require.True(t, ok, tok)
		assert.Equal(t, "take", w.Text)
	}
}

func world(t *testing.T, behaviors ...string) *state.World {
	t.Helper()
	w := state.New("")
	require.NoError(t, w.Add(types.Entity{ID: "hall", Kind: types.KindLocation, Location: &types.LocationData{}}))
	require.NoError(t, w.Add(types.Entity{ID: types.PlayerID, Kind: types.KindActor,
		Actor: &types.ActorData{Location: "hall", Health: 5}}))
	require.NoError(t, w.Add(types.Entity{ID: "idol", Kind: types.KindItem,
		Item: &types.ItemData{Container: "hall"}, Behaviors: behaviors}))
	return w
}

func TestDispatchEvent_ListedOrderAndVetoStops(t *testing.T) {
	var order []string
	track := func(name string, veto bool) Reaction {
		return func(*Context, Event) types.Outcome {
			order = append(order, name)
			return types.Outcome{Message: name, Vetoed: veto}
		}
	}
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "cursed", Reactions: map[string]Reaction{"on_take": track("cursed", false)}}, TierGame))
	require.NoError(t, r.Register(Module{Name: "heavy", Reactions: map[string]Reaction{"on_take": track("heavy", true)}}, TierLibrary))
	require.NoError(t, r.Register(Module{Name: "shiny", Reactions: map[string]Reaction{"on_take": track("shiny", false)}}, TierLibrary))

	w := world(t, "shiny", "heavy", "cursed")
	require.NoError(t, r.Bind(w))

	out := r.DispatchEvent(&Context{World: w}, Event{Name: "on_take", EntityID: "idol"})
	assert.True(t, out.Vetoed)
	assert.False(t, out.Success)
	assert.Equal(t, "heavy", out.Message)
	assert.Equal(t, []string{"shiny", "heavy"}, order, "entity order, not registration order")
}

func TestDispatchEvent_AggregatesMessages(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "a", Reactions: map[string]Reaction{"on_take": react("one", false)}}, TierGame))
	require.NoError(t, r.Register(Module{Name: "b", Reactions: map[string]Reaction{"on_take": react("", false)}}, TierGame))
	require.NoError(t, r.Register(Module{Name: "c", Reactions: map[string]Reaction{"on_take": react("two", false)}}, TierGame))
	w := world(t, "a", "b", "c")
	require.NoError(t, r.Bind(w))

	out := r.DispatchEvent(&Context{World: w}, Event{Name: "on_take", EntityID: "idol"})
	assert.True(t, out.Success)
	assert.False(t, out.Vetoed)
	assert.Equal(t, "one\ntwo", out.Message)
}

func TestDispatchEvent_OnlyListedModules(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "guard", Reactions: map[string]Reaction{"on_take": react("no", true)}}, TierGame))
	w := world(t)
	require.NoError(t, r.Bind(w))

	out := r.DispatchEvent(&Context{World: w}, Event{Name: "on_take", EntityID: "idol"})
	assert.False(t, out.Vetoed)
	assert.True(t, out.Success)
	assert.False(t, r.Reacts("idol", "on_take"))

	out = r.DispatchEvent(&Context{World: w}, Event{Name: "on_unheard", EntityID: "idol"})
	assert.True(t, out.Success)
}

func TestBind_ReportsEveryProblem(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "core", Handlers: map[string]Handler{"dance": say("x")}}, TierCore))
	w := world(t, "ghost", "phantom")

	err := r.Bind(w)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	msg := err.Error()
	assert.Contains(t, msg, `"ghost"`)
	assert.Contains(t, msg, `"phantom"`)
	assert.Contains(t, msg, `handler verb "dance"`)

	assert.Error(t, r.Register(Module{Name: "after"}, TierCore), "sealed")
}

func TestEventsIntrospection(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(Module{Name: "a", Reactions: map[string]Reaction{"on_take": react("", false), "on_turn": react("", false)}}, TierGame))
	require.NoError(t, r.Register(Module{Name: "b", Reactions: map[string]Reaction{"on_take": react("", false)}}, TierLibrary))

	entries := r.Events()
	require.Len(t, entries, 2)
	assert.Equal(t, "on_take", entries[0].Name)
	assert.Equal(t, []string{"a", "b"}, entries[0].Modules)

	mods := r.Modules()
	require.Len(t, mods, 2)
	assert.Equal(t, []string{"on_take", "on_turn"}, mods[0].Reactions)
	assert.True(t, strings.HasPrefix(mods[1].Tier.String(), "library"))
}
