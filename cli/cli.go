// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the FableCore engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/fablecore/narrate"
	"github.com/nathoo/fablecore/session"
)

// CLI handles plain terminal interaction with the player.
type CLI struct {
	Session   *session.Session
	Meta      *Meta
	In        io.Reader
	Out       io.Writer
	Width     int  // wrap width, 0 disables wrapping
	EchoInput bool // echo each input line after the prompt (for script playback)
	lastCmd   string
}

// New creates a CLI wired to the given session.
func New(s *session.Session) *CLI {
	width := narrate.DefaultWidth
	if s.Config != nil {
		width = s.Config.Wrap
	}
	return &CLI{
		Session: s,
		Meta:    NewMeta(s),
		In:      os.Stdin,
		Out:     os.Stdout,
		Width:   width,
	}
}

// Banner returns the title line for a game.
func Banner(s *session.Session) string {
	g := s.Content.Game
	line := g.Title
	if g.Version != "" {
		line += " v" + g.Version
	}
	if g.Author != "" {
		line += " by " + g.Author
	}
	return line
}

// Run starts the game loop. It shows the intro, describes the starting room,
// then loops: prompt, input, dispatch, output.
func (c *CLI) Run(ctx context.Context) {
	if intro := c.Session.Content.Game.Intro; intro != "" {
		c.printLines([]string{intro, ""})
	}
	c.printLines(c.Meta.Describe())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			reply := c.Meta.Handle(ctx, input)
			for _, l := range reply.System {
				c.printSystem(l)
			}
			if reply.Quit {
				return
			}
			c.printLines(reply.Narrative)
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Session.Engine.Step(ctx, input)
		c.printLines(narrate.Lines(result))
		c.printLines(c.Meta.TraceLines(result))
	}
}

func (c *CLI) printLines(lines []string) {
	for _, l := range narrate.WrapLines(lines, c.Width) {
		c.printLine(l)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
