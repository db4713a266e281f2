package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/fablecore/engine/resolve"
	"github.com/nathoo/fablecore/engine/save"
	"github.com/nathoo/fablecore/modules/core"
	"github.com/nathoo/fablecore/session"
	"github.com/nathoo/fablecore/types"
)

// DefaultSlot is the save slot used when none is named.
const DefaultSlot = "quicksave"

// Meta runs slash commands against a session. The plain CLI and the TUI
// share it.
type Meta struct {
	Session *session.Session
	Trace   bool

	gate []string // gate results since the last step, for tracing
}

// NewMeta wires a Meta to the session's engine so it can trace gate
// results.
func NewMeta(s *session.Session) *Meta {
	m := &Meta{Session: s}
	s.Engine.SetTrace(func(verb string, res types.MutationResult) {
		m.gate = append(m.gate, formatMutation(verb, res))
	})
	return m
}

// Reply is the result of a meta-command: system notices, narrative to show
// as game text, and whether the player asked to quit.
type Reply struct {
	System    []string
	Narrative []string
	Quit      bool
}

func system(lines ...string) Reply {
	return Reply{System: lines}
}

// Handle dispatches a slash command.
func (m *Meta) Handle(ctx context.Context, input string) Reply {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return Reply{System: []string{"Goodbye."}, Quit: true}
	case "/save":
		return m.save(ctx, arg)
	case "/load":
		return m.load(ctx, arg)
	case "/saves":
		return m.slots(ctx)
	case "/delete":
		return m.delete(ctx, arg)
	case "/help":
		return system(Help()...)
	case "/state":
		return system(m.State()...)
	case "/trace":
		m.Trace = !m.Trace
		if m.Trace {
			return system("Trace output enabled.")
		}
		return system("Trace output disabled.")
	default:
		return system(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
}

func (m *Meta) save(ctx context.Context, slot string) Reply {
	if slot == "" {
		slot = DefaultSlot
	}
	if _, err := m.Session.Save(ctx, slot); err != nil {
		return system(fmt.Sprintf("Save failed: %v", err))
	}
	return system(fmt.Sprintf("Game saved to %s.", slot))
}

func (m *Meta) load(ctx context.Context, slot string) Reply {
	if slot == "" {
		slot = DefaultSlot
	}
	snap, err := m.Session.Load(ctx, slot)
	if err != nil {
		if errors.Is(err, save.ErrNotFound) {
			return system(fmt.Sprintf("Load failed: no save named %s.", slot))
		}
		return system(fmt.Sprintf("Load failed: %v", err))
	}
	return Reply{
		System:    []string{fmt.Sprintf("Game loaded from %s (turn %d).", slot, snap.Turn)},
		Narrative: m.Describe(),
	}
}

func (m *Meta) slots(ctx context.Context) Reply {
	slots, err := m.Session.Slots(ctx)
	if err != nil {
		return system(fmt.Sprintf("Listing saves failed: %v", err))
	}
	if len(slots) == 0 {
		return system("No saved games.")
	}
	return system("Saved games: " + strings.Join(slots, ", "))
}

func (m *Meta) delete(ctx context.Context, slot string) Reply {
	if slot == "" {
		return system("Usage: /delete <name>")
	}
	if err := m.Session.Store.Delete(ctx, slot); err != nil {
		return system(fmt.Sprintf("Delete failed: %v", err))
	}
	return system(fmt.Sprintf("Deleted %s.", slot))
}

// Help lists the meta commands and the stock verbs.
func Help() []string {
	return []string{
		"System:",
		"  /save [name]    Save game (default: quicksave)",
		"  /load [name]    Load game (default: quicksave)",
		"  /saves          List saved games",
		"  /delete <name>  Delete a saved game",
		"  /quit           Exit game",
		"  /help           Show this help",
		"  /state          Debug: dump current state",
		"  /trace          Toggle debug trace output",
		"",
		"Game commands:",
		"  look (l)                Describe the room",
		"  examine <thing> (x)     Look closely at something",
		"  go <dir>                Move (or just type n/s/e/w/u/d)",
		"  take/get <item>         Pick something up",
		"  drop <item>             Put something down",
		"  put <item> in <thing>   Put something in or on something",
		"  open / close / unlock   Work doors and containers",
		"  attack <actor>          Fight",
		"  talk to <npc>           Talk to someone",
		"  ask <npc> about <topic>",
		"  inventory (i)           Check what you're carrying",
		"  wait (z)                Let time pass",
		"  again (g)               Repeat your last command",
	}
}

// State dumps the player's situation for debugging.
func (m *Meta) State() []string {
	eng := m.Session.Engine
	w := eng.World
	p := w.Player()

	var inv []string
	for _, id := range w.Contents(types.PlayerID) {
		inv = append(inv, resolve.DisplayName(w, id))
	}
	out := []string{
		fmt.Sprintf("Turn: %d", w.Turn),
		fmt.Sprintf("Location: %s", p.Actor.Location),
		fmt.Sprintf("Health: %d/%d", p.Actor.Health, p.Actor.MaxHealth),
		fmt.Sprintf("Inventory: %v", inv),
		fmt.Sprintf("Turn order: %s", w.TurnOrder),
	}
	if len(p.Actor.Conditions) > 0 {
		var conds []string
		for _, c := range p.Actor.Conditions {
			conds = append(conds, fmt.Sprintf("%s(%d)", c.Name, c.Remaining))
		}
		out = append(out, "Conditions: "+strings.Join(conds, ", "))
	}
	if len(p.Props) > 0 {
		keys := make([]string, 0, len(p.Props))
		for k := range p.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var props []string
		for _, k := range keys {
			props = append(props, fmt.Sprintf("%s=%v", k, p.Props[k]))
		}
		out = append(out, "Props: "+strings.Join(props, " "))
	}
	if pending := w.Scheduled(); len(pending) > 0 {
		out = append(out, fmt.Sprintf("Scheduled: %d", len(pending)))
	}
	return out
}

// Describe returns the description of the player's current location.
func (m *Meta) Describe() []string {
	w := m.Session.Engine.World
	return strings.Split(core.Describe(w, types.PlayerID, w.LocationOf(types.PlayerID)), "\n")
}

// TraceLines returns the trace for a step and clears the gate log. It
// returns nothing while tracing is off.
func (m *Meta) TraceLines(res types.Result) []string {
	gate := m.gate
	m.gate = nil
	if !m.Trace {
		return nil
	}

	var lines []string
	if res.Command != nil {
		lines = append(lines, "[trace] command: "+formatCommand(*res.Command))
	}
	if res.ParseError != nil {
		lines = append(lines, "[trace] parse: "+res.ParseError.Error())
	}
	if res.Outcome.Unrecognized {
		lines = append(lines, "[trace] no handler claimed the verb")
	}
	for _, g := range gate {
		lines = append(lines, "[trace]   "+g)
	}
	if res.TurnTaken {
		lines = append(lines, fmt.Sprintf("[trace] turn %d, %d reaction(s)", res.Turn, len(res.Reactions)))
	}
	return lines
}

func formatCommand(cmd types.Command) string {
	var parts []string
	add := func(label string, w *types.Word) {
		if w != nil {
			parts = append(parts, label+"="+w.Text)
		}
	}
	add("verb", cmd.Verb)
	add("adj", cmd.DirectAdjective)
	add("object", cmd.DirectObject)
	add("prep", cmd.Preposition)
	add("target_adj", cmd.IndirectAdjective)
	add("target", cmd.IndirectObject)
	add("dir", cmd.Direction)
	return strings.Join(parts, " ")
}

func formatMutation(verb string, res types.MutationResult) string {
	status := "applied"
	switch {
	case res.Err != nil:
		status = "error: " + res.Err.Error()
	case res.Vetoed:
		status = "vetoed"
	case !res.Applied:
		status = "refused"
	}
	s := fmt.Sprintf("gate %s %s: %s", verb, res.EntityID, status)
	if res.Message != "" {
		s += fmt.Sprintf(" (%q)", res.Message)
	}
	return s
}
