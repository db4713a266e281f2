package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/parser"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

type harness struct {
	world *state.World
	reg   *registry.Registry
	gate  *gate.Gate
}

func newHarness(t *testing.T, extra ...registry.Module) *harness {
	t.Helper()
	w := state.New("")
	for _, e := range []types.Entity{
		{ID: "hall", Kind: types.KindLocation, Name: "Great Hall", Description: "Tapestries everywhere.", Location: &types.LocationData{}},
		{ID: "yard", Kind: types.KindLocation, Name: "Yard", Location: &types.LocationData{}},
		{ID: types.PlayerID, Kind: types.KindActor, Name: "you", Actor: &types.ActorData{Location: "hall", Health: 10, MaxHealth: 10}},
		{ID: "brass_key", Kind: types.KindItem, Name: "Brass Key", Item: &types.ItemData{Container: "hall", Portable: true}},
		{ID: "statue", Kind: types.KindItem, Name: "Statue", Description: "A stern king.", Item: &types.ItemData{Container: "hall"}},
		{ID: "chest", Kind: types.KindItem, Name: "Chest", Item: &types.ItemData{Container: "hall"},
			Props: map[string]any{"closed": true, "receptacle": true, "lock": "chest_lock"}},
		{ID: "coin", Kind: types.KindItem, Name: "Coin", Item: &types.ItemData{Container: "chest", Portable: true}},
		{ID: "chest_lock", Kind: types.KindLock, Name: "Chest Lock", Lock: &types.LockData{Locked: true, Keys: []string{"brass_key"}}},
		{ID: "gate_lock", Kind: types.KindLock, Name: "Gate", Lock: &types.LockData{Locked: true, Keys: []string{"brass_key"}}},
		{ID: "hall_north", Kind: types.KindExit, Exit: &types.ExitData{From: "hall", Direction: "north", Destination: "yard", Lock: "gate_lock"}},
		{ID: "yard_south", Kind: types.KindExit, Exit: &types.ExitData{From: "yard", Direction: "south", Destination: "hall"}},
	} {
		require.NoError(t, w.Add(e))
	}
	require.NoError(t, w.Validate())

	r := registry.New(nil)
	for _, m := range extra {
		require.NoError(t, r.Register(m, registry.TierGame))
	}
	require.NoError(t, r.Register(Module(), registry.TierCore))
	require.NoError(t, r.Register(registry.Module{Name: vocab.BaseModule, Vocabulary: vocab.Base()}, registry.TierCore))
	require.NoError(t, r.Register(registry.Module{Name: "nouns", Vocabulary: []types.Word{
		{Text: "key", Class: types.ClassNoun},
		{Text: "statue", Class: types.ClassNoun},
		{Text: "chest", Class: types.ClassNoun},
		{Text: "coin", Class: types.ClassNoun},
		{Text: "gate", Class: types.ClassNoun},
		{Text: "brass", Class: types.ClassAdjective},
	}}, registry.TierCore))
	require.NoError(t, r.Bind(w))
	return &harness{world: w, reg: r, gate: gate.New(w, r, nil)}
}

func (h *harness) run(t *testing.T, input string) types.Outcome {
	t.Helper()
	cmd, err := parser.Parse(h.reg.Vocabulary(), input)
	require.NoError(t, err, input)
	return h.reg.DispatchCommand(&registry.Context{World: h.world, Gate: h.gate, ActorID: types.PlayerID}, cmd)
}

func (h *harness) container(t *testing.T, id string) string {
	t.Helper()
	e, ok := h.world.Get(id)
	require.True(t, ok)
	return e.Item.Container
}

func TestLook(t *testing.T) {
	h := newHarness(t)
	out := h.run(t, "look")
	require.True(t, out.Success)
	assert.Equal(t, "Great Hall\nTapestries everywhere.\nYou see: Brass Key, Chest, Statue.\nExits: north.", out.Message)
}

func TestExamine(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "A stern king.", h.run(t, "examine statue").Message)
	assert.Equal(t, "A stern king.", h.run(t, "look at statue").Message)
	assert.Equal(t, "You see nothing special about the brass key.", h.run(t, "x key").Message)

	out := h.run(t, "examine coin")
	assert.False(t, out.Success, "coin is inside the closed chest")
	assert.Equal(t, `You don't see "coin" here.`, out.Message)
}

func TestTakeAndDrop(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "take the brass key")
	require.True(t, out.Success)
	assert.Equal(t, "You take the brass key.", out.Message)
	assert.Equal(t, types.PlayerID, h.container(t, "brass_key"))

	assert.Equal(t, "You already have that.", h.run(t, "get key").Message)
	assert.Equal(t, "You are carrying: Brass Key.", h.run(t, "i").Message)

	out = h.run(t, "take statue")
	assert.False(t, out.Success)
	assert.Equal(t, "You can't take that.", out.Message)

	out = h.run(t, "drop key")
	require.True(t, out.Success)
	assert.Equal(t, "hall", h.container(t, "brass_key"))
	assert.Equal(t, "You don't have that.", h.run(t, "drop key").Message)
}

func TestTake_Vetoed(t *testing.T) {
	cursed := registry.Module{Name: "cursed", Reactions: map[string]registry.Reaction{
		"on_take": func(*registry.Context, registry.Event) types.Outcome {
			return types.Outcome{Vetoed: true, Message: "The key burns your fingers!"}
		},
	}}
	h := newHarness(t, cursed)
	e, _ := h.world.Get("brass_key")
	e.Behaviors = []string{"cursed"}
	require.NoError(t, h.reg.Bind(h.world))

	out := h.run(t, "take key")
	assert.False(t, out.Success)
	assert.True(t, out.Vetoed)
	assert.Equal(t, "The key burns your fingers!", out.Message)
	assert.Equal(t, "hall", h.container(t, "brass_key"))
}

func TestLockedGateAndMovement(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "go north")
	assert.False(t, out.Success)
	assert.Equal(t, "The gate is locked.", out.Message)

	assert.Equal(t, "You have nothing to unlock it with.", h.run(t, "unlock gate").Message)

	h.run(t, "take key")
	out = h.run(t, "unlock gate with brass key")
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "gate_lock", out.Data["lock"])

	out = h.run(t, "go north")
	require.True(t, out.Success, out.Message)
	p, _ := h.world.Get(types.PlayerID)
	assert.Equal(t, "yard", p.Actor.Location)
	assert.Contains(t, out.Message, "Exits: south.")

	assert.Equal(t, "You can't go that way.", h.run(t, "go east").Message)
}

func TestTraverseVeto(t *testing.T) {
	troll := registry.Module{Name: "troll", Reactions: map[string]registry.Reaction{
		"on_traverse": func(_ *registry.Context, ev registry.Event) types.Outcome {
			return types.Outcome{Vetoed: true, Message: "A troll blocks the way."}
		},
	}}
	h := newHarness(t, troll)
	x, _ := h.world.Get("hall_north")
	x.Behaviors = []string{"troll"}
	l, _ := h.world.Get("gate_lock")
	l.Lock.Locked = false
	require.NoError(t, h.reg.Bind(h.world))

	out := h.run(t, "go north")
	assert.False(t, out.Success)
	assert.Equal(t, "A troll blocks the way.", out.Message)
	p, _ := h.world.Get(types.PlayerID)
	assert.Equal(t, "hall", p.Actor.Location)
}

func TestChest_UnlockOpenPut(t *testing.T) {
	h := newHarness(t)
	h.run(t, "take key")

	assert.Equal(t, "The chest is locked.", h.run(t, "open chest").Message)
	require.True(t, h.run(t, "unlock chest").Success)
	assert.Equal(t, "You open the chest.", h.run(t, "open chest").Message)
	assert.Equal(t, "The chest is already open.", h.run(t, "open chest").Message)

	out := h.run(t, "take coin")
	require.True(t, out.Success, out.Message)

	out = h.run(t, "put coin in chest")
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "chest", h.container(t, "coin"))

	out = h.run(t, "put key on statue")
	assert.False(t, out.Success)

	require.True(t, h.run(t, "close chest").Success)
	assert.Equal(t, "The chest is closed.", h.run(t, "put key in chest").Message)
}

func TestObjectlessCommands(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Time passes.", h.run(t, "wait").Message)
	assert.Equal(t, "Go where?", h.run(t, "go").Message)
	assert.Equal(t, "What do you want to take?", h.run(t, "take").Message)
}
