// Package tui provides a Bubble Tea terminal UI for the FableCore engine.
package tui

import "strings"

// History keeps recent player commands for Up/Down recall. Recall is
// filtered by whatever the player had typed when navigation began, so
// typing "ta" then Up walks back through "take ..." commands only.
type History struct {
	entries []string
	max     int
	cursor  int    // -1 = not navigating
	draft   string // input when navigation began
}

// NewHistory creates a history holding at most max commands.
func NewHistory(max int) *History {
	return &History{max: max, cursor: -1}
}

// Push records a command. Blank input, repeat aliases, and consecutive
// duplicates are not recorded.
func (h *History) Push(cmd string) {
	cmd = strings.TrimSpace(cmd)
	switch strings.ToLower(cmd) {
	case "", "again", "g":
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

func (h *History) matches(i int) bool {
	return strings.HasPrefix(h.entries[i], h.draft)
}

// Prev returns the next older command starting with the draft. typed is
// the current input; it becomes the draft when navigation starts. At the
// oldest match Prev stays put.
func (h *History) Prev(typed string) (string, bool) {
	start := h.cursor
	if h.cursor == -1 {
		h.draft = typed
		start = len(h.entries)
	}
	for i := start - 1; i >= 0; i-- {
		if h.matches(i) {
			h.cursor = i
			return h.entries[i], true
		}
	}
	if h.cursor == -1 {
		return "", false
	}
	return h.entries[h.cursor], true
}

// Next returns the next newer matching command. Past the newest it stops
// navigating and returns false; Draft then holds the input to restore.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	for i := h.cursor + 1; i < len(h.entries); i++ {
		if h.matches(i) {
			h.cursor = i
			return h.entries[i], true
		}
	}
	h.cursor = -1
	return "", false
}

// Draft returns the input typed before navigation began.
func (h *History) Draft() string {
	return h.draft
}

// ResetCursor ends navigation.
func (h *History) ResetCursor() {
	h.cursor = -1
	h.draft = ""
}

// Recent returns up to n of the newest commands, oldest first.
func (h *History) Recent(n int) []string {
	if n > len(h.entries) {
		n = len(h.entries)
	}
	return append([]string(nil), h.entries[len(h.entries)-n:]...)
}
