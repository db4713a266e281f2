package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/fablecore/narrate"
)

// Styles used throughout the TUI. Colors are 256-color indices.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleEcho = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleListing = lipgloss.NewStyle().
			Bold(true)

	styleExits = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleSpeech = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleReaction = lipgloss.NewStyle().
			Foreground(lipgloss.Color("180")).
			Italic(true)

	styleRefusal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleGameOver = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindListing
	kindExits
	kindSpeech
	kindReaction
	kindRefusal
	kindGameOver
	kindSystem
	kindTrace
	kindEcho // player input
	kindMeta // meta-command replies, shown bracketed
)

// segmentKind maps a rendered segment to a line kind. Plain text falls back
// to classifyLine so room listings and speech still stand out.
func segmentKind(seg narrate.Segment) lineKind {
	switch seg.Kind {
	case narrate.KindReaction:
		return kindReaction
	case narrate.KindError:
		return kindRefusal
	case narrate.KindGameOver:
		return kindGameOver
	default:
		return classifyLine(seg.Text)
	}
}

// classifyLine guesses the kind of an untyped line from its shape.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You see:"):
		return kindListing
	case strings.HasPrefix(line, "Exits:"):
		return kindExits
	case containsQuotedSpeech(line):
		return kindSpeech
	default:
		return kindNarrative
	}
}

// containsQuotedSpeech reports whether a line holds a single-quoted phrase
// longer than a few characters, so apostrophes don't count.
func containsQuotedSpeech(line string) bool {
	open := false
	n := 0
	for _, r := range line {
		switch {
		case r == '\'' && open && n > 5:
			return true
		case r == '\'':
			open = !open
			n = 0
		case open:
			n++
		}
	}
	return false
}

// render applies the style for kind to an already wrapped line.
func render(line string, kind lineKind) string {
	switch kind {
	case kindListing:
		return renderListing(line)
	case kindExits:
		return styleExits.Render(line)
	case kindSpeech:
		return styleSpeech.Render(line)
	case kindReaction:
		return styleReaction.Render(line)
	case kindRefusal:
		return styleRefusal.Render(line)
	case kindGameOver:
		return styleGameOver.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	case kindEcho:
		return styleEcho.Render(line)
	case kindMeta:
		return styleSystem.Render("[" + line + "]")
	default:
		return styleNarrative.Render(line)
	}
}

// renderListing bolds the item names in "You see: a, b."
func renderListing(line string) string {
	const prefix = "You see: "
	if !strings.HasPrefix(line, prefix) {
		return styleNarrative.Render(line)
	}
	return styleNarrative.Render(prefix) + styleListing.Render(line[len(prefix):])
}
