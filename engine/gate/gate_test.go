package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

type fixture struct {
	world *state.World
	reg   *registry.Registry
	gate  *Gate
}

// setup builds a small world; the chest carries the given behaviors.
func setup(t *testing.T, mods []registry.Module, behaviors ...string) *fixture {
	t.Helper()
	w := state.New("")
	for _, e := range []types.Entity{
		{ID: "hall", Kind: types.KindLocation, Location: &types.LocationData{}},
		{ID: "yard", Kind: types.KindLocation, Location: &types.LocationData{}},
		{ID: types.PlayerID, Kind: types.KindActor, Actor: &types.ActorData{Location: "hall", Health: 10, MaxHealth: 10}},
		{ID: "chest", Kind: types.KindItem, Item: &types.ItemData{Container: "hall"}, Behaviors: behaviors,
			Props: map[string]any{"weight": 5}},
		{ID: "coin", Kind: types.KindItem, Item: &types.ItemData{Container: "chest", Portable: true}},
		{ID: "key", Kind: types.KindItem, Item: &types.ItemData{Container: "hall", Portable: true}},
		{ID: "door_lock", Kind: types.KindLock, Lock: &types.LockData{Locked: true}},
		{ID: "hall_out", Kind: types.KindExit, Exit: &types.ExitData{From: "hall", Direction: "north", Destination: "yard"}},
	} {
		require.NoError(t, w.Add(e))
	}
	require.NoError(t, w.Validate())

	r := registry.New(nil)
	for _, m := range mods {
		require.NoError(t, r.Register(m, registry.TierGame))
	}
	require.NoError(t, r.Bind(w))
	return &fixture{world: w, reg: r, gate: New(w, r, nil)}
}

func (f *fixture) get(t *testing.T, id string) types.Entity {
	t.Helper()
	e, ok := f.world.Get(id)
	require.True(t, ok)
	return state.Clone(e)
}

func TestApply_CommitsAllChanges(t *testing.T) {
	f := setup(t, nil)
	res := f.gate.Apply("chest", []types.Change{
		Set("name", "Oak Chest"),
		Set("container", "yard"),
		SetProp("open", true),
		Add("prop:weight", 2),
	}, "push", types.PlayerID)

	require.NoError(t, res.Err)
	assert.True(t, res.Applied)
	chest := f.get(t, "chest")
	assert.Equal(t, "Oak Chest", chest.Name)
	assert.Equal(t, "yard", chest.Item.Container)
	assert.Equal(t, true, chest.Props["open"])
	assert.Equal(t, 7, chest.Props["weight"])
}

func TestApply_VetoLeavesEntityUntouched(t *testing.T) {
	guard := registry.Module{Name: "bolted", Reactions: map[string]registry.Reaction{
		"on_push": func(_ *registry.Context, ev registry.Event) types.Outcome {
			return types.Outcome{Vetoed: true, Message: "It is bolted to the floor."}
		},
	}}
	f := setup(t, []registry.Module{guard}, "bolted")
	before := f.get(t, "chest")

	res := f.gate.Apply("chest", []types.Change{Set("container", "yard"), SetProp("open", true)}, "push", types.PlayerID)
	assert.True(t, res.Vetoed)
	assert.False(t, res.Applied)
	assert.Equal(t, "It is bolted to the floor.", res.Message)
	assert.Equal(t, before, f.get(t, "chest"))
}

func TestApply_ReactionSeesProposedChanges(t *testing.T) {
	var seen registry.Event
	spy := registry.Module{Name: "spy", Reactions: map[string]registry.Reaction{
		"on_push": func(_ *registry.Context, ev registry.Event) types.Outcome {
			seen = ev
			return types.Outcome{Message: "creak"}
		},
		"after_push": func(*registry.Context, registry.Event) types.Outcome {
			return types.Outcome{Message: "thud", Vetoed: true}
		},
	}}
	f := setup(t, []registry.Module{spy}, "spy")

	res := f.gate.Apply("chest", []types.Change{Set("container", "yard")}, "push", "player")
	assert.True(t, res.Applied, "after_ vetoes are ignored")
	assert.Equal(t, "creak\nthud", res.Message)
	assert.Equal(t, "on_push", seen.Name)
	assert.Equal(t, "player", seen.ActorID)
	require.Len(t, seen.Changes, 1)
	assert.Equal(t, "container", seen.Changes[0].Field)
}

func TestApply_InvalidChangeIsAtomic(t *testing.T) {
	polled := false
	spy := registry.Module{Name: "spy", Reactions: map[string]registry.Reaction{
		"on_push": func(*registry.Context, registry.Event) types.Outcome {
			polled = true
			return types.Outcome{}
		},
	}}
	f := setup(t, []registry.Module{spy}, "spy")
	before := f.get(t, "chest")

	tests := []struct {
		name   string
		change types.Change
	}{
		{"unknown field", Set("colour", "red")},
		{"wrong type", Set("portable", "yes")},
		{"missing container", Set("container", "void")},
		{"cycle", Set("container", "coin")},
		{"actor field on item", Set("health", 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.gate.Apply("chest", []types.Change{SetProp("open", true), tt.change}, "push", "player")
			var ce *ChangeError
			require.ErrorAs(t, res.Err, &ce)
			assert.False(t, res.Applied)
			assert.Equal(t, before, f.get(t, "chest"))
		})
	}
	assert.False(t, polled, "invalid changes never reach the poll")
}

func TestApply_EmptyChangesIsPoll(t *testing.T) {
	guard := registry.Module{Name: "guarded", Reactions: map[string]registry.Reaction{
		"on_traverse": func(*registry.Context, registry.Event) types.Outcome {
			return types.Outcome{Vetoed: true, Message: "Blocked."}
		},
	}}
	f := setup(t, []registry.Module{guard}, "guarded")
	before := f.get(t, "chest")

	res := f.gate.Poll("chest", "traverse", "player")
	assert.True(t, res.Vetoed)

	res = f.gate.Poll("coin", "traverse", "player")
	assert.True(t, res.Applied)
	assert.Equal(t, before, f.get(t, "chest"))
}

func TestApply_HealthClamped(t *testing.T) {
	f := setup(t, nil)

	f.gate.Apply(types.PlayerID, []types.Change{Add("health", -25)}, "hit", "rat")
	assert.Equal(t, 0, f.get(t, types.PlayerID).Actor.Health)

	f.gate.Apply(types.PlayerID, []types.Change{Add("health", 50.0)}, "heal", "player")
	assert.Equal(t, 10, f.get(t, types.PlayerID).Actor.Health)

	f.gate.Apply(types.PlayerID, []types.Change{Set("max_health", 4)}, "curse", "player")
	p := f.get(t, types.PlayerID)
	assert.Equal(t, 4, p.Actor.MaxHealth)
	assert.Equal(t, 4, p.Actor.Health)
}

func TestApply_Conditions(t *testing.T) {
	f := setup(t, nil)

	res := f.gate.Apply(types.PlayerID, []types.Change{
		AddCondition(types.Condition{Name: "poisoned", Remaining: 3, Damage: 1}),
		AddCondition(types.Condition{Name: "blessed", Remaining: -1}),
	}, "bite", "snake")
	require.NoError(t, res.Err)
	assert.Len(t, f.get(t, types.PlayerID).Actor.Conditions, 2)

	f.gate.Apply(types.PlayerID, []types.Change{Add("condition:poisoned", 2)}, "bite", "snake")
	assert.Equal(t, 5, f.get(t, types.PlayerID).Actor.Conditions[0].Remaining)

	f.gate.Apply(types.PlayerID, []types.Change{RemoveCondition("poisoned")}, "cure", "player")
	conds := f.get(t, types.PlayerID).Actor.Conditions
	require.Len(t, conds, 1)
	assert.Equal(t, "blessed", conds[0].Name)
}

func TestApply_LockAndExit(t *testing.T) {
	f := setup(t, nil)

	res := f.gate.Apply("door_lock", []types.Change{Add("keys", "key"), Set("locked", false)}, "configure", "player")
	require.NoError(t, res.Err)
	lock := f.get(t, "door_lock")
	assert.Equal(t, []string{"key"}, lock.Lock.Keys)
	assert.False(t, lock.Lock.Locked)

	res = f.gate.Apply("door_lock", []types.Change{Add("keys", "hall")}, "configure", "player")
	assert.Error(t, res.Err, "keys must be items")

	res = f.gate.Apply("hall_out", []types.Change{Set("lock", "door_lock"), Set("destination", "hall")}, "configure", "player")
	require.NoError(t, res.Err)
	exit := f.get(t, "hall_out")
	assert.Equal(t, "door_lock", exit.Exit.Lock)
	assert.Equal(t, "hall", exit.Exit.Destination)

	res = f.gate.Apply("hall_out", []types.Change{Set("destination", "chest")}, "configure", "player")
	assert.Error(t, res.Err)
}

func TestApply_UnknownEntity(t *testing.T) {
	f := setup(t, nil)
	res := f.gate.Apply("ghost", []types.Change{SetProp("x", 1)}, "poke", "player")
	assert.ErrorContains(t, res.Err, "no such entity")
}

func TestApply_NestedMutationInReaction(t *testing.T) {
	// A reaction that moves the key elsewhere while the chest is pushed.
	sly := registry.Module{Name: "sly", Reactions: map[string]registry.Reaction{
		"on_push": func(ctx *registry.Context, ev registry.Event) types.Outcome {
			ctx.Gate.Apply(ev.EntityID, []types.Change{SetProp("pushed_by", ev.ActorID)}, "mark", ev.ActorID)
			return types.Outcome{}
		},
	}}
	f := setup(t, []registry.Module{sly}, "sly")

	res := f.gate.Apply("chest", []types.Change{Set("container", "yard")}, "push", "player")
	require.True(t, res.Applied)
	chest := f.get(t, "chest")
	assert.Equal(t, "yard", chest.Item.Container)
	assert.Equal(t, "player", chest.Props["pushed_by"], "nested change survives the outer commit")
}

func TestApply_Trace(t *testing.T) {
	f := setup(t, nil)
	var verbs []string
	f.gate.Trace = func(verb string, _ types.MutationResult) { verbs = append(verbs, verb) }
	f.gate.Apply("key", []types.Change{Set("container", types.PlayerID)}, "take", "player")
	assert.Equal(t, []string{"take"}, verbs)
}
