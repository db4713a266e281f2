package state

import (
	"fmt"

	"github.com/nathoo/fablecore/types"
)

// Snapshot captures the world as a detached, deep-copied value. Pending
// removals are not captured: snapshots are only taken between turns, after
// removals have been applied.
func (w *World) Snapshot() types.Snapshot {
	snap := types.Snapshot{
		Turn:      w.Turn,
		TurnOrder: w.TurnOrder,
		Entities:  make([]types.Entity, 0, len(w.ids)),
		Scheduled: w.Scheduled(),
	}
	for _, id := range w.ids {
		snap.Entities = append(snap.Entities, Clone(w.entities[id]))
	}
	return snap
}

// FromSnapshot rebuilds a validated world from a snapshot.
func FromSnapshot(snap types.Snapshot) (*World, error) {
	w := New(snap.TurnOrder)
	w.Turn = snap.Turn
	for i := range snap.Entities {
		if err := w.Add(snap.Entities[i]); err != nil {
			return nil, fmt.Errorf("restoring snapshot: %w", err)
		}
	}
	for _, ev := range snap.Scheduled {
		if _, ok := w.entities[ev.EntityID]; !ok {
			return nil, fmt.Errorf("restoring snapshot: scheduled %q: %w: %q", ev.Event, ErrNoSuchEntity, ev.EntityID)
		}
		w.scheduled = append(w.scheduled, ev)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("restoring snapshot: %w", err)
	}
	return w, nil
}
