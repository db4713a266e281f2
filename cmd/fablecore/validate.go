package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nathoo/fablecore/config"
	"github.com/nathoo/fablecore/loader"
	"github.com/nathoo/fablecore/session"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "validate <game_directory>",
		Short:        "Load and bind a game without playing it",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func runValidate(out io.Writer, dir string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := config.SetupLogger(cfg, os.Stderr)

	content, err := loader.Load(dir, log)
	if err != nil {
		return err
	}
	defer content.Close()

	reg, err := session.NewRegistry(content, log)
	if err != nil {
		return err
	}
	if err := reg.Bind(content.World); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d entities\n\n", content.Game.Title, content.World.Len())

	fmt.Fprintln(out, "Modules:")
	for _, m := range reg.Modules() {
		fmt.Fprintf(out, "  %-12s %-8s", m.Name, m.Tier)
		if len(m.Verbs) > 0 {
			fmt.Fprintf(out, " verbs: %s", strings.Join(m.Verbs, ", "))
		}
		if len(m.Reactions) > 0 {
			fmt.Fprintf(out, " reactions: %s", strings.Join(m.Reactions, ", "))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "\nEvents:")
	for _, e := range reg.Events() {
		fmt.Fprintf(out, "  %-24s %s\n", e.Name, strings.Join(e.Modules, ", "))
	}

	if len(content.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings (%d):\n", len(content.Warnings))
		for _, w := range content.Warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	fmt.Fprintf(out, "\nVocabulary: %d words\n", reg.Vocabulary().Len())
	return nil
}
