package library

import (
	"sort"
	"strings"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/resolve"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Topic is one line of conversation an actor can offer. Topics live in the
// actor's "topics" property, keyed by topic word. A value is either the
// text itself or a table with text, requires (a player flag that must be
// set) and sets (a player flag set on hearing it).
type Topic struct {
	Key      string
	Text     string
	Requires string
	Sets     string
}

// Topics returns the topics of an actor sorted by key.
func Topics(w *state.World, actorID string) []Topic {
	raw, ok := w.Prop(actorID, "topics")
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	var out []Topic
	for key, v := range m {
		t := Topic{Key: strings.ToLower(key)}
		switch val := v.(type) {
		case string:
			t.Text = val
		case map[string]any:
			t.Text, _ = val["text"].(string)
			t.Requires, _ = val["requires"].(string)
			t.Sets, _ = val["sets"].(string)
		default:
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AvailableTopics returns the topics whose requirement the player meets.
func AvailableTopics(w *state.World, actorID string) []Topic {
	var out []Topic
	for _, t := range Topics(w, actorID) {
		if t.Requires == "" || w.BoolProp(types.PlayerID, t.Requires, false) {
			out = append(out, t)
		}
	}
	return out
}

// Dialogue provides talk and ask.
func Dialogue() registry.Module {
	return registry.Module{
		Name: "dialogue",
		Vocabulary: []types.Word{
			{Text: "talk", Class: types.ClassVerb, Synonyms: []string{"speak", "greet"}, ObjectRequired: true},
			{Text: "ask", Class: types.ClassVerb, Synonyms: []string{"question"}, ObjectRequired: true},
		},
		Handlers: map[string]registry.Handler{
			"talk": talk,
			"ask":  talk,
		},
	}
}

// talk handles "talk to guard", "ask guard about magic" and "ask guard".
// Without a topic the first available topic is used.
func talk(ctx *registry.Context, cmd types.Command, _ registry.Next) types.Outcome {
	if cmd.DirectObject == nil {
		return fail("Talk to whom?")
	}
	npc, err := resolvePhrase(ctx, cmd.DirectAdjective, cmd.DirectObject)
	if err != nil {
		return fail("%s.", capitalize(err.Error()))
	}
	available := AvailableTopics(ctx.World, npc)
	if len(Topics(ctx.World, npc)) == 0 {
		return fail("You can't talk to that.")
	}
	npcName := resolve.DisplayName(ctx.World, npc)
	if !alive(ctx.World, npc) {
		return fail("%s has nothing more to say.", npcName)
	}

	var topic *Topic
	if cmd.IndirectObject != nil {
		key := cmd.IndirectObject.Text
		for i := range available {
			if available[i].Key == key {
				topic = &available[i]
				break
			}
		}
		if topic == nil {
			if len(available) > 0 {
				keys := make([]string, len(available))
				for i, t := range available {
					keys[i] = t.Key
				}
				return fail("%s has nothing to say about that. You could ask about: %s.", npcName, strings.Join(keys, ", "))
			}
			return fail("%s has nothing to say right now.", npcName)
		}
	} else {
		if len(available) == 0 {
			return fail("%s has nothing to say right now.", npcName)
		}
		topic = &available[0]
	}

	msg := topic.Text
	if topic.Sets != "" {
		res := ctx.Gate.Apply(ctx.ActorID, []types.Change{gate.SetProp(topic.Sets, true)}, "learn", npc)
		if res.Applied && res.Message != "" {
			msg += "\n" + res.Message
		}
	}
	return types.Outcome{
		Success: true,
		Message: msg,
		Data:    map[string]any{"npc": npc, "topic": topic.Key},
	}
}

func resolvePhrase(ctx *registry.Context, adj, noun *types.Word) (string, error) {
	return resolve.Phrase(ctx.World, ctx.ActorID, adj, noun)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
