// Package save persists world snapshots. Snapshots are encoded as JSON and
// kept in named slots by a Store.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/fablecore/types"
)

// ErrNotFound is returned when a slot holds no snapshot.
var ErrNotFound = errors.New("save not found")

// Store keeps snapshots in named slots.
type Store interface {
	Save(ctx context.Context, slot string, snap types.Snapshot) error
	Load(ctx context.Context, slot string) (types.Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, slot string) error
}

// Encode serializes a snapshot to JSON bytes.
func Encode(snap types.Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Decode deserializes JSON bytes into a snapshot. It checks the envelope
// only; the world itself is validated on restore.
func Decode(data []byte) (types.Snapshot, error) {
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Game == "" {
		return types.Snapshot{}, fmt.Errorf("decoding snapshot: no game title")
	}
	if len(snap.Entities) == 0 {
		return types.Snapshot{}, fmt.Errorf("decoding snapshot: no entities")
	}
	// Ensure props are never nil after load.
	for i := range snap.Entities {
		if snap.Entities[i].Props == nil {
			snap.Entities[i].Props = map[string]any{}
		}
	}
	return snap, nil
}

// CheckSlot rejects slot names that are empty or could escape a store's
// namespace.
func CheckSlot(slot string) error {
	if slot == "" {
		return fmt.Errorf("empty save slot")
	}
	if strings.ContainsAny(slot, `/\:`) || strings.Contains(slot, "..") || strings.TrimSpace(slot) != slot {
		return fmt.Errorf("invalid save slot %q", slot)
	}
	return nil
}
