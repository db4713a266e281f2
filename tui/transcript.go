package tui

import (
	"strings"

	"github.com/nathoo/fablecore/narrate"
)

// entry is one unstyled transcript line. Text is kept raw so the whole
// transcript can be re-wrapped when the terminal is resized.
type entry struct {
	text string
	kind lineKind
}

// transcript accumulates everything shown in the viewport.
type transcript struct {
	entries []entry
}

func (t *transcript) add(text string, kind lineKind) {
	t.entries = append(t.entries, entry{text: text, kind: kind})
}

func (t *transcript) echo(input string) {
	t.add("> "+input, kindEcho)
}

func (t *transcript) segments(segs []narrate.Segment) {
	for _, s := range segs {
		t.add(s.Text, segmentKind(s))
	}
}

// lines adds untyped lines, classified by shape.
func (t *transcript) lines(lines []string) {
	for _, l := range lines {
		t.add(l, classifyLine(l))
	}
}

func (t *transcript) meta(lines []string) {
	for _, l := range lines {
		t.add(l, kindMeta)
	}
}

// separator ends a turn with a blank line.
func (t *transcript) separator() {
	t.add("", kindNarrative)
}

// render wraps and styles every entry at width.
func (t transcript) render(width int) string {
	if width < 10 {
		width = 10
	}
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		if e.text == "" {
			out = append(out, "")
			continue
		}
		out = append(out, render(narrate.Wrap(e.text, width), e.kind))
	}
	return strings.Join(out, "\n")
}

// plain returns the unstyled transcript.
func (t transcript) plain() string {
	texts := make([]string, len(t.entries))
	for i, e := range t.entries {
		texts[i] = e.text
	}
	return strings.Join(texts, "\n")
}
