package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/fablecore/types"
)

const fileExt = ".json"

// FileStore keeps one JSON file per slot in a directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(slot string) string {
	return filepath.Join(s.dir, slot+fileExt)
}

// Save writes the snapshot atomically, replacing any previous one.
func (s *FileStore) Save(_ context.Context, slot string, snap types.Snapshot) error {
	if err := CheckSlot(slot); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", slot, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("saving %q: %w", slot, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("saving %q: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving %q: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), s.path(slot)); err != nil {
		return fmt.Errorf("saving %q: %w", slot, err)
	}
	return nil
}

// Load reads the snapshot in a slot.
func (s *FileStore) Load(_ context.Context, slot string) (types.Snapshot, error) {
	if err := CheckSlot(slot); err != nil {
		return types.Snapshot{}, err
	}
	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return types.Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, slot)
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("loading %q: %w", slot, err)
	}
	return Decode(data)
}

// List returns the slot names in the directory, sorted.
func (s *FileStore) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	var slots []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), fileExt); ok && !e.IsDir() {
			slots = append(slots, name)
		}
	}
	sort.Strings(slots)
	return slots, nil
}

// Delete removes a slot. Deleting an empty slot returns ErrNotFound.
func (s *FileStore) Delete(_ context.Context, slot string) error {
	if err := CheckSlot(slot); err != nil {
		return err
	}
	err := os.Remove(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrNotFound, slot)
	}
	return err
}
