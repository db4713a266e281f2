package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Snapshot captures the world. It is only available at Idle, so every
// snapshot is a fully resolved turn boundary.
func (e *Engine) Snapshot() (types.Snapshot, error) {
	if e.phase != PhaseIdle {
		return types.Snapshot{}, fmt.Errorf("snapshot during %s phase: %w", e.phase, ErrNotIdle)
	}
	snap := e.World.Snapshot()
	snap.ID = uuid.NewString()
	snap.Game = e.Game.Title
	snap.SavedAt = time.Now().UTC()
	return snap, nil
}

// Restore replaces the world with a snapshot of the same game. The
// snapshot is validated and rebound before anything is replaced.
func (e *Engine) Restore(snap types.Snapshot) error {
	if e.phase != PhaseIdle {
		return fmt.Errorf("restore during %s phase: %w", e.phase, ErrNotIdle)
	}
	if snap.Game != e.Game.Title {
		return fmt.Errorf("%w: %q, playing %q", ErrGameMismatch, snap.Game, e.Game.Title)
	}
	w, err := state.FromSnapshot(snap)
	if err != nil {
		return err
	}
	// A failed bind leaves the current binding in place.
	if err := e.Registry.Bind(w); err != nil {
		return err
	}

	e.World = w
	e.Gate = gate.New(w, e.Registry, e.log)
	e.Gate.Trace = e.trace
	e.gameOver = w.BoolProp(types.PlayerID, "terminal", false)
	e.log.Info("world restored", "snapshot", snap.ID, "turn", w.Turn)
	return nil
}
