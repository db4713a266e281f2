// Package engine provides the Step() orchestrator that wires together
// parsing, handler dispatch, the mutation gate, and the post-command turn
// phases into a single turn.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/parser"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

var (
	ErrNotIdle      = errors.New("engine is not idle")
	ErrGameMismatch = errors.New("snapshot belongs to a different game")
)

// Fallback interprets input the parser rejected. It must produce a command
// in the same shape the parser would. It runs strictly before the turn
// boundary.
type Fallback interface {
	Interpret(ctx context.Context, input string) (types.Command, error)
}

// Engine owns the world for one session and runs turns against it.
type Engine struct {
	World    *state.World
	Registry *registry.Registry
	Gate     *gate.Gate
	Game     types.GameDef

	fallback Fallback
	log      *slog.Logger
	rng      *RNG
	trace    func(verb string, res types.MutationResult)
	phase    Phase
	gameOver bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithFallback installs a natural-language fallback.
func WithFallback(f Fallback) Option {
	return func(e *Engine) { e.fallback = f }
}

// WithSeed seeds the RNG used for shuffled actor order.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = NewRNG(seed) }
}

// New binds the world to the registry and returns an idle engine.
func New(w *state.World, reg *registry.Registry, game types.GameDef, opts ...Option) (*Engine, error) {
	e := &Engine{
		World:    w,
		Registry: reg,
		Game:     game,
		log:      slog.Default(),
		rng:      NewRNG(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid world: %w", err)
	}
	if err := reg.Bind(w); err != nil {
		return nil, err
	}
	e.Gate = gate.New(w, reg, e.log)
	e.gameOver = w.BoolProp(types.PlayerID, "terminal", false)
	return e, nil
}

// SetTrace installs a hook that observes every gate result.
func (e *Engine) SetTrace(fn func(verb string, res types.MutationResult)) {
	e.trace = fn
	e.Gate.Trace = fn
}

// Phase returns the current orchestration phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// GameOver reports whether the player has reached a terminal state.
func (e *Engine) GameOver() bool {
	return e.gameOver
}

// Step processes one line of player input and returns the result.
func (e *Engine) Step(ctx context.Context, input string) types.Result {
	result := types.Result{Input: input, Turn: e.World.Turn}

	// 0. Game over: refuse further commands.
	if e.gameOver {
		result.GameOver = true
		return result
	}

	// 1. Parse, falling back to the interpreter when configured.
	cmd, err := parser.Parse(e.Registry.Vocabulary(), input)
	if err != nil {
		if e.fallback == nil {
			result.ParseError = err
			return result
		}
		fcmd, ferr := e.fallback.Interpret(ctx, input)
		if ferr != nil {
			e.log.Debug("fallback failed", "input", input, "error", ferr)
			result.ParseError = err
			return result
		}
		fcmd.Raw = input
		cmd = fcmd
	}

	return e.submit(cmd, result)
}

// Submit dispatches an already-built command, exactly as if the parser had
// produced it.
func (e *Engine) Submit(_ context.Context, cmd types.Command) types.Result {
	result := types.Result{Input: cmd.Raw, Turn: e.World.Turn}
	if e.gameOver {
		result.GameOver = true
		return result
	}
	return e.submit(cmd, result)
}

func (e *Engine) submit(cmd types.Command, result types.Result) types.Result {
	// 2. A bare direction is movement.
	if cmd.Verb == nil && cmd.Direction != nil {
		if w, ok := e.Registry.Vocabulary().Lookup("go"); ok && w.Class == types.ClassVerb {
			cmd.Verb = w
		}
	}
	result.Command = &cmd

	if cmd.Verb == nil {
		result.Outcome = registry.Unrecognized("")
		return result
	}

	// 3. Verbs that need an object are refused without dispatch.
	if cmd.Verb.ObjectRequired && cmd.DirectObject == nil {
		result.Outcome = types.Outcome{Data: map[string]any{"verb": cmd.Verb.Text, "missing": "object"}}
		return result
	}

	// 4. Dispatch through the handler chain.
	rctx := &registry.Context{World: e.World, Gate: e.Gate, ActorID: types.PlayerID}
	e.phase = PhaseCommand
	result.Outcome = e.Registry.DispatchCommand(rctx, cmd)

	// 5. A failed command consumes no turn.
	if !result.Outcome.Success {
		e.phase = PhaseIdle
		return result
	}

	// 6. Orchestrate the rest of the turn.
	e.runTurn(&result)
	return result
}
