package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/fablecore/engine/resolve"
	"github.com/nathoo/fablecore/narrate"
	"github.com/nathoo/fablecore/types"
)

// renderStatusBar produces a full-width inverted status line showing
// current room, exits, health, inventory, and turn count.
func (m Model) renderStatusBar() string {
	w := m.session.Engine.World
	p := w.Player()
	loc := w.LocationOf(types.PlayerID)

	var dirs []string
	for _, x := range w.ExitsFrom(loc) {
		dirs = append(dirs, x.Exit.Direction)
	}

	left := fmt.Sprintf(" %s | Exits: %s | HP: %d/%d",
		narrate.Title(resolve.DisplayName(w, loc)), strings.Join(dirs, ","), p.Actor.Health, p.Actor.MaxHealth)
	right := fmt.Sprintf("T:%d ", w.Turn)

	// Show inventory items if they fit, otherwise just count.
	if held := w.Contents(types.PlayerID); len(held) > 0 {
		names := make([]string, 0, len(held))
		for _, id := range held {
			names = append(names, resolve.DisplayName(w, id))
		}
		candidate := fmt.Sprintf("Inv: %s | T:%d ", strings.Join(names, ", "), w.Turn)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | T:%d ", len(held), w.Turn)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
