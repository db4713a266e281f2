package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/fablecore/types"
)

func location(id string) types.Entity {
	return types.Entity{ID: id, Kind: types.KindLocation, Name: id, Location: &types.LocationData{}}
}

func item(id, container string) types.Entity {
	return types.Entity{ID: id, Kind: types.KindItem, Name: id, Item: &types.ItemData{Container: container, Portable: true}}
}

func actor(id, loc string, health int) types.Entity {
	return types.Entity{ID: id, Kind: types.KindActor, Name: id,
		Actor: &types.ActorData{Location: loc, Health: health, MaxHealth: health}}
}

func testWorld(t *testing.T) *World {
	t.Helper()
	w := New("")
	for _, e := range []types.Entity{
		location("hall"),
		location("cellar"),
		actor(types.PlayerID, "hall", 10),
		actor("rat", "cellar", 3),
		item("chest", "hall"),
		item("coin", "chest"),
		item("key", types.PlayerID),
		{ID: "cellar_lock", Kind: types.KindLock, Lock: &types.LockData{Locked: true, Keys: []string{"key"}}},
		{ID: "hall_down", Kind: types.KindExit, Exit: &types.ExitData{From: "hall", Direction: "down", Destination: "cellar", Lock: "cellar_lock"}},
		{ID: "cellar_up", Kind: types.KindExit, Exit: &types.ExitData{From: "cellar", Direction: "up", Destination: "hall"}},
	} {
		require.NoError(t, w.Add(e))
	}
	require.NoError(t, w.Validate())
	return w
}

func TestNew_DefaultsToSorted(t *testing.T) {
	assert.Equal(t, types.OrderSorted, New("").TurnOrder)
	assert.Equal(t, types.OrderShuffled, New(types.OrderShuffled).TurnOrder)
}

func TestAdd_DuplicateID(t *testing.T) {
	w := New("")
	require.NoError(t, w.Add(location("hall")))
	err := w.Add(item("hall", "hall"))
	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.Error(t, w.Add(types.Entity{Kind: types.KindItem}))
}

func TestAdd_StoresCopy(t *testing.T) {
	w := New("")
	e := item("lamp", "hall")
	e.Props = map[string]any{"lit": false}
	require.NoError(t, w.Add(e))
	e.Props["lit"] = true
	e.Item.Container = "elsewhere"

	got, _ := w.Get("lamp")
	assert.Equal(t, false, got.Props["lit"])
	assert.Equal(t, "hall", got.Item.Container)
}

func TestQueries(t *testing.T) {
	w := testWorld(t)

	assert.Equal(t, []string{"cellar", "hall"}, w.OfKind(types.KindLocation))
	assert.Equal(t, []string{"player", "rat"}, w.Actors())
	assert.Equal(t, []string{"chest"}, w.Contents("hall"))
	assert.Equal(t, []string{"coin"}, w.Contents("chest"))
	assert.Equal(t, "hall", w.LocationOf("coin"))
	assert.Equal(t, "hall", w.LocationOf("key"))
	assert.True(t, w.Holds(types.PlayerID, "key"))
	assert.False(t, w.Holds(types.PlayerID, "coin"))
	assert.Equal(t, []string{"player"}, w.ActorsAt("hall"))

	exit, ok := w.ExitToward("hall", "down")
	require.True(t, ok)
	assert.Equal(t, "cellar", exit.Exit.Destination)
	_, ok = w.ExitToward("hall", "north")
	assert.False(t, ok)
}

func TestProps(t *testing.T) {
	w := New("")
	l := location("pit")
	l.Props = map[string]any{"hazard_damage": float64(2), "breathable": false}
	require.NoError(t, w.Add(l))

	assert.Equal(t, 2, w.IntProp("pit", "hazard_damage", 0))
	assert.Equal(t, 1, w.IntProp("pit", "suffocation_damage", 1))
	assert.False(t, w.BoolProp("pit", "breathable", true))
	assert.True(t, w.BoolProp("missing", "breathable", true))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	w := New("")
	require.NoError(t, w.Add(location("hall")))
	require.NoError(t, w.Add(item("orb", "nowhere")))
	require.NoError(t, w.Add(types.Entity{ID: "gate", Kind: types.KindExit,
		Exit: &types.ExitData{From: "hall", Direction: "north", Destination: "orb"}}))

	err := w.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "player")
	assert.Contains(t, msg, "nowhere")
	assert.Contains(t, msg, `destination "orb" is a item`)
}

func TestValidate_VariantMismatch(t *testing.T) {
	w := New("")
	require.NoError(t, w.Add(types.Entity{ID: "odd", Kind: types.KindItem, Location: &types.LocationData{}}))
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variant")
}

func TestValidate_ContainmentCycle(t *testing.T) {
	w := testWorld(t)
	require.NoError(t, w.Add(item("box_a", "box_b")))
	require.NoError(t, w.Add(item("box_b", "box_a")))
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestCheckContainer(t *testing.T) {
	w := testWorld(t)
	assert.NoError(t, w.CheckContainer("coin", types.PlayerID))
	assert.NoError(t, w.CheckContainer("key", "chest"))
	assert.Error(t, w.CheckContainer("chest", "coin"), "cycle through a nested item")
	assert.Error(t, w.CheckContainer("chest", "chest"))
	assert.Error(t, w.CheckContainer("coin", "hall_down"), "exits hold nothing")
	assert.ErrorIs(t, w.CheckContainer("coin", "void"), ErrNoSuchEntity)
}

func TestApplyRemovals(t *testing.T) {
	w := testWorld(t)
	require.NoError(t, w.ScheduleEvent(2, "chest", "on_creak"))
	require.NoError(t, w.ScheduleRemoval("chest"))
	require.NoError(t, w.ScheduleRemoval("chest"))
	require.NoError(t, w.ScheduleRemoval("key"))

	// Still present until applied.
	_, ok := w.Get("chest")
	require.True(t, ok)
	assert.Equal(t, []string{"chest", "key"}, w.PendingRemovals())

	removed := w.ApplyRemovals()
	assert.Equal(t, []string{"chest", "key"}, removed)

	_, ok = w.Get("chest")
	assert.False(t, ok)
	coin, _ := w.Get("coin")
	assert.Equal(t, "hall", coin.Item.Container, "contents fall into the parent")
	lock, _ := w.Get("cellar_lock")
	assert.Empty(t, lock.Lock.Keys)
	assert.Empty(t, w.Scheduled())
	assert.NoError(t, w.Validate())
	assert.Nil(t, w.ApplyRemovals())
}

func TestScheduleRemoval_Rejects(t *testing.T) {
	w := testWorld(t)
	assert.ErrorIs(t, w.ScheduleRemoval(types.PlayerID), ErrNotRemovable)
	assert.ErrorIs(t, w.ScheduleRemoval("hall"), ErrNotRemovable)
	assert.ErrorIs(t, w.ScheduleRemoval("ghost"), ErrNoSuchEntity)
}

func TestScheduledEvents(t *testing.T) {
	w := testWorld(t)
	require.NoError(t, w.ScheduleEvent(2, "rat", "on_squeak"))
	require.NoError(t, w.ScheduleEvent(1, "rat", "on_sniff"))
	require.NoError(t, w.ScheduleEvent(1, "chest", "on_creak"))
	assert.Error(t, w.ScheduleEvent(0, "rat", "on_now"))
	assert.ErrorIs(t, w.ScheduleEvent(1, "ghost", "on_boo"), ErrNoSuchEntity)

	assert.Empty(t, w.DueEvents(0))

	due := w.DueEvents(1)
	require.Len(t, due, 2)
	assert.Equal(t, "chest", due[0].EntityID)
	assert.Equal(t, "on_sniff", due[1].Event)

	due = w.DueEvents(5)
	require.Len(t, due, 1)
	assert.Equal(t, "on_squeak", due[0].Event)
	assert.Empty(t, w.Scheduled())
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := testWorld(t)
	w.Turn = 7
	require.NoError(t, w.ScheduleEvent(3, "rat", "on_squeak"))

	snap := w.Snapshot()
	restored, err := FromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())

	// The snapshot is detached from the live world.
	rat, _ := w.Get("rat")
	rat.Actor.Health = 0
	again, _ := restored.Get("rat")
	assert.Equal(t, 3, again.Actor.Health)
}

func TestFromSnapshot_Invalid(t *testing.T) {
	snap := types.Snapshot{Entities: []types.Entity{location("hall")}}
	_, err := FromSnapshot(snap)
	assert.Error(t, err)
}

func TestClone_DeepCopiesNestedProps(t *testing.T) {
	e := item("book", "hall")
	e.Props = map[string]any{"topics": map[string]any{"magic": "Ancient."}, "pages": []any{1.0, 2.0}}
	c := Clone(&e)
	c.Props["topics"].(map[string]any)["magic"] = "changed"
	c.Props["pages"].([]any)[0] = 9.0
	assert.Equal(t, "Ancient.", e.Props["topics"].(map[string]any)["magic"])
	assert.Equal(t, 1.0, e.Props["pages"].([]any)[0])
}
