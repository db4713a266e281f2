// Package session assembles a playable game: it loads content, registers
// modules in precedence order, builds the engine, and opens the save store.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nathoo/fablecore/config"
	"github.com/nathoo/fablecore/engine"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/save"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/loader"
	"github.com/nathoo/fablecore/modules/core"
	"github.com/nathoo/fablecore/modules/library"
	"github.com/nathoo/fablecore/types"
)

// Names of the vocabulary-only modules the session registers.
const (
	ContentVocabulary = "content"
	WorldVocabulary   = "world"
)

// Options adjust a session beyond what Config carries.
type Options struct {
	// TurnOrder overrides the order declared by the game when set.
	TurnOrder types.TurnOrder
	Fallback  engine.Fallback
	// Store replaces the store the config would open.
	Store save.Store
}

// Session is one loaded game ready to play.
type Session struct {
	Config  *config.Config
	Content *loader.Content
	Engine  *engine.Engine
	Store   save.Store

	log *slog.Logger
}

// Open loads the game in dir and prepares it to play.
func Open(ctx context.Context, cfg *config.Config, dir string, opts Options, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	content, err := loader.Load(dir, log)
	if err != nil {
		return nil, err
	}

	s, err := assemble(ctx, cfg, content, opts, log)
	if err != nil {
		content.Close()
		return nil, err
	}
	return s, nil
}

func assemble(ctx context.Context, cfg *config.Config, content *loader.Content, opts Options, log *slog.Logger) (*Session, error) {
	reg, err := NewRegistry(content, log)
	if err != nil {
		return nil, err
	}

	switch opts.TurnOrder {
	case "":
	case types.OrderSorted, types.OrderShuffled:
		content.World.TurnOrder = opts.TurnOrder
	default:
		return nil, fmt.Errorf("unknown turn order %q", opts.TurnOrder)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	engOpts := []engine.Option{engine.WithLogger(log), engine.WithSeed(seed)}
	if opts.Fallback != nil {
		engOpts = append(engOpts, engine.WithFallback(opts.Fallback))
	}
	eng, err := engine.New(content.World, reg, content.Game, engOpts...)
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		if store, err = OpenStore(ctx, cfg, log); err != nil {
			return nil, err
		}
	}

	log.Info("session ready",
		"game", content.Game.Title,
		"modules", len(reg.Modules()),
		"words", reg.Vocabulary().Len(),
		"turn_order", string(content.World.TurnOrder),
		"seed", seed)
	return &Session{Config: cfg, Content: content, Engine: eng, Store: store, log: log}, nil
}

// NewRegistry registers every module in precedence order: the game's
// vocabulary file and Lua modules, the shared library, the core defaults,
// the base vocabulary, then nouns and adjectives derived from the world
// that no module already defines.
func NewRegistry(content *loader.Content, log *slog.Logger) (*registry.Registry, error) {
	reg := registry.New(log)

	if len(content.Vocabulary) > 0 {
		m := registry.Module{Name: ContentVocabulary, Vocabulary: content.Vocabulary}
		if err := reg.Register(m, registry.TierGame); err != nil {
			return nil, err
		}
	}
	for _, m := range content.Modules {
		if err := reg.Register(m, registry.TierGame); err != nil {
			return nil, err
		}
	}
	for _, m := range library.Modules() {
		if err := reg.Register(m, registry.TierLibrary); err != nil {
			return nil, err
		}
	}
	if err := reg.Register(core.Module(), registry.TierCore); err != nil {
		return nil, err
	}
	base := registry.Module{Name: vocab.BaseModule, Vocabulary: vocab.Base()}
	if err := reg.Register(base, registry.TierCore); err != nil {
		return nil, err
	}

	known := reg.Vocabulary()
	var derived []types.Word
	for _, w := range loader.DerivedVocabulary(content.World) {
		if _, ok := known.Lookup(w.Text); !ok {
			derived = append(derived, w)
		}
	}
	if len(derived) > 0 {
		m := registry.Module{Name: WorldVocabulary, Vocabulary: derived}
		if err := reg.Register(m, registry.TierCore); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// OpenStore opens the save store selected by the config.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (save.Store, error) {
	switch cfg.SaveBackend {
	case config.BackendRedis:
		client, err := save.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return save.NewRedisStore(client, cfg.RedisPrefix, log), nil
	default:
		return save.NewFileStore(cfg.SaveDir), nil
	}
}

// Title returns the game title.
func (s *Session) Title() string {
	return s.Content.Game.Title
}

// Save snapshots the engine into a slot. It fails unless the engine is
// idle.
func (s *Session) Save(ctx context.Context, slot string) (types.Snapshot, error) {
	snap, err := s.Engine.Snapshot()
	if err != nil {
		return types.Snapshot{}, err
	}
	if err := s.Store.Save(ctx, slot, snap); err != nil {
		return types.Snapshot{}, err
	}
	s.log.Info("game saved", "slot", slot, "snapshot", snap.ID, "turn", snap.Turn)
	return snap, nil
}

// Load restores the engine from a slot.
func (s *Session) Load(ctx context.Context, slot string) (types.Snapshot, error) {
	snap, err := s.Store.Load(ctx, slot)
	if err != nil {
		return types.Snapshot{}, err
	}
	if err := s.Engine.Restore(snap); err != nil {
		return types.Snapshot{}, err
	}
	return snap, nil
}

// Slots lists the saved slots.
func (s *Session) Slots(ctx context.Context) ([]string, error) {
	return s.Store.List(ctx)
}

// Close releases the store connection and the content VM.
func (s *Session) Close() error {
	var err error
	if c, ok := s.Store.(io.Closer); ok {
		err = c.Close()
	}
	s.Content.Close()
	return err
}
