package state

import (
	"fmt"
	"slices"
	"sort"

	"github.com/nathoo/fablecore/types"
)

// ScheduleRemoval marks an item or non-player actor for removal. Removal
// happens between turns in ApplyRemovals, never mid-turn, so references held
// by the running phase stay valid.
func (w *World) ScheduleRemoval(id string) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchEntity, id)
	}
	if id == types.PlayerID || (e.Kind != types.KindItem && e.Kind != types.KindActor) {
		return fmt.Errorf("%w: %q (%s)", ErrNotRemovable, id, e.Kind)
	}
	if !slices.Contains(w.removals, id) {
		w.removals = append(w.removals, id)
	}
	return nil
}

// PendingRemovals returns the ids awaiting removal, in scheduling order.
func (w *World) PendingRemovals() []string {
	return append([]string(nil), w.removals...)
}

// ApplyRemovals deletes every pending entity. Items held by a removed
// entity drop into its parent, removed items vanish from lock key lists, and
// scheduled events owned by the entity are cancelled. It returns the removed
// ids.
func (w *World) ApplyRemovals() []string {
	if len(w.removals) == 0 {
		return nil
	}
	removed := w.removals
	w.removals = nil

	for _, id := range removed {
		if _, ok := w.entities[id]; !ok {
			continue
		}
		parent := w.Parent(id)
		for _, child := range w.Contents(id) {
			w.entities[child].Item.Container = parent
		}
		for _, lockID := range w.OfKind(types.KindLock) {
			l := w.entities[lockID].Lock
			l.Keys = slices.DeleteFunc(l.Keys, func(k string) bool { return k == id })
		}
		w.scheduled = slices.DeleteFunc(w.scheduled, func(ev types.ScheduledEvent) bool {
			return ev.EntityID == id
		})
		delete(w.entities, id)
	}
	w.reindex()
	return removed
}

// ScheduleEvent queues a named event for an entity. The event is due on
// turn Turn+delay, where Turn counts completed turns, and fires at the start
// of that turn's actor phase. Delay 1 therefore means the next actor phase
// to run.
func (w *World) ScheduleEvent(delay int, entityID, event string) error {
	if _, ok := w.entities[entityID]; !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchEntity, entityID)
	}
	if delay < 1 {
		return fmt.Errorf("schedule %q on %q: delay must be at least 1, got %d", event, entityID, delay)
	}
	w.scheduled = append(w.scheduled, types.ScheduledEvent{
		Turn:     w.Turn + delay,
		EntityID: entityID,
		Event:    event,
	})
	return nil
}

// DueEvents removes and returns the events due on or before turn, ordered
// by due turn and then by entity id. Ties keep scheduling order.
func (w *World) DueEvents(turn int) []types.ScheduledEvent {
	var due, rest []types.ScheduledEvent
	for _, ev := range w.scheduled {
		if ev.Turn <= turn {
			due = append(due, ev)
		} else {
			rest = append(rest, ev)
		}
	}
	w.scheduled = rest
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Turn != due[j].Turn {
			return due[i].Turn < due[j].Turn
		}
		return due[i].EntityID < due[j].EntityID
	})
	return due
}

// Scheduled returns a copy of the pending event queue.
func (w *World) Scheduled() []types.ScheduledEvent {
	return append([]types.ScheduledEvent(nil), w.scheduled...)
}
