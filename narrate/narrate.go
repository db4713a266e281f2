// Package narrate turns engine results into the lines a front end prints.
package narrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathoo/fablecore/engine/parser"
	"github.com/nathoo/fablecore/types"
)

// DefaultWidth is the wrap width used when none is configured.
const DefaultWidth = 80

// Fixed responses.
const (
	MsgNotUnderstood = "I don't understand that."
	MsgCantDoThat    = "You can't do that here."
	MsgGameOver      = "The game is over. Load a save or quit."
	MsgNothing       = "Nothing happens."
)

// Kind classifies a rendered segment so front ends can style it.
type Kind int

const (
	KindText     Kind = iota // plain narration
	KindReaction             // surfaced by a turn phase
	KindError                // the command was refused or not understood
	KindGameOver
)

// Segment is one rendered line and its kind.
type Segment struct {
	Kind Kind
	Text string
}

// Segments renders a result: the command outcome first, then anything the
// turn phases surfaced, then a game-over notice if the turn ended the game.
func Segments(res types.Result) []Segment {
	if res.ParseError != nil {
		if msg := parseMessage(res.ParseError); msg != "" {
			return []Segment{{KindError, msg}}
		}
		return nil
	}
	if res.GameOver && !res.TurnTaken {
		return []Segment{{KindGameOver, MsgGameOver}}
	}

	var segs []Segment
	if msg := outcomeMessage(res.Outcome); msg != "" {
		kind := KindText
		if !res.Outcome.Success {
			kind = KindError
		}
		segs = append(segs, Segment{kind, msg})
	}
	for _, r := range res.Reactions {
		if r.Message != "" {
			segs = append(segs, Segment{KindReaction, r.Message})
		}
	}
	if res.GameOver {
		segs = append(segs, Segment{KindText, ""}, Segment{KindGameOver, MsgGameOver})
	}
	return segs
}

// Lines is Segments without the kinds.
func Lines(res types.Result) []string {
	var lines []string
	for _, s := range Segments(res) {
		lines = append(lines, s.Text)
	}
	return lines
}

func parseMessage(err error) string {
	var pe *parser.Error
	if !errors.As(err, &pe) {
		return MsgNotUnderstood
	}
	switch pe.Kind {
	case parser.ErrEmptyInput:
		return ""
	case parser.ErrUnknownWord:
		return fmt.Sprintf("I don't know the word %q.", pe.Token)
	default:
		return MsgNotUnderstood
	}
}

func outcomeMessage(out types.Outcome) string {
	if out.Message != "" {
		return out.Message
	}
	verb, _ := out.Data["verb"].(string)
	switch {
	case out.Unrecognized:
		return MsgCantDoThat
	case out.Data["missing"] == "object" && verb != "":
		return fmt.Sprintf("What do you want to %s?", verb)
	case !out.Success:
		return MsgNothing
	}
	return ""
}

// Wrap word-wraps text to width. A width of zero or less leaves it as is.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// WrapLines wraps each line and splits the results so every returned line
// fits within width.
func WrapLines(lines []string, width int) []string {
	var out []string
	for _, l := range lines {
		out = append(out, strings.Split(Wrap(l, width), "\n")...)
	}
	return out
}

// Title title-cases an entity name or id for headings, so "iron_gate"
// becomes "Iron Gate".
func Title(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
