package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathoo/fablecore/cli"
	"github.com/nathoo/fablecore/config"
	"github.com/nathoo/fablecore/session"
	"github.com/nathoo/fablecore/tui"
	"github.com/nathoo/fablecore/types"
)

type playFlags struct {
	plain     bool
	script    string
	trace     bool
	seed      int64
	turnOrder string
}

func playCmd() *cobra.Command {
	var f playFlags
	cmd := &cobra.Command{
		Use:          "fablecore <game_directory>",
		Short:        "Play a FableCore game",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args[0], f)
		},
	}
	cmd.Flags().BoolVar(&f.plain, "plain", false, "use the plain line interface")
	cmd.Flags().StringVar(&f.script, "script", "", "replay commands from a file (implies --plain)")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "show command and gate traces")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "seed for shuffled actor order (overrides FABLE_SEED)")
	cmd.Flags().StringVar(&f.turnOrder, "turn-order", "", "override the game's actor order: sorted or shuffled")
	return cmd
}

func runPlay(cmd *cobra.Command, dir string, f playFlags) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = f.seed
	}
	log := config.SetupLogger(cfg, os.Stderr)

	s, err := session.Open(ctx, cfg, dir, session.Options{TurnOrder: types.TurnOrder(f.turnOrder)}, log)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}
	defer s.Close()

	// Script mode: open file, force plain, echo commands.
	if f.script != "" {
		file, err := os.Open(f.script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer file.Close()

		c := cli.New(s)
		c.In = file
		c.Out = cmd.OutOrStdout()
		c.EchoInput = true
		c.Meta.Trace = f.trace
		fmt.Fprintf(c.Out, "%s\n\n", cli.Banner(s))
		c.Run(ctx)
		return nil
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if f.plain || !isTerminal() {
		c := cli.New(s)
		c.Out = cmd.OutOrStdout()
		c.Meta.Trace = f.trace
		fmt.Fprintf(c.Out, "%s\n\n", cli.Banner(s))
		c.Run(ctx)
		return nil
	}

	return tui.Run(ctx, s, f.trace)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
