package loader

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// warnings reports content that is valid but probably unintended:
// locations the player cannot reach and locked locks without keys.
func warnings(w *state.World) []string {
	var out []string

	reached := map[string]bool{}
	if p := w.Player(); p != nil {
		queue := []string{p.Actor.Location}
		reached[p.Actor.Location] = true
		for len(queue) > 0 {
			loc := queue[0]
			queue = queue[1:]
			for _, x := range w.ExitsFrom(loc) {
				if !reached[x.Exit.Destination] {
					reached[x.Exit.Destination] = true
					queue = append(queue, x.Exit.Destination)
				}
			}
		}
	}
	for _, id := range w.OfKind(types.KindLocation) {
		if !reached[id] {
			out = append(out, fmt.Sprintf("location %q is unreachable from the start", id))
		}
	}

	for _, id := range w.OfKind(types.KindLock) {
		l, _ := w.Get(id)
		if l.Lock.Locked && len(l.Lock.Keys) == 0 {
			out = append(out, fmt.Sprintf("lock %q is locked and has no keys", id))
		}
	}
	return out
}

// DerivedVocabulary returns the nouns and adjectives the world's entities
// answer to: the last word of a name is a noun and earlier words are
// adjectives, the "nouns" and "adjectives" properties add more, and
// conversation topic keys are nouns. A word derived as both is a noun.
func DerivedVocabulary(w *state.World) []types.Word {
	nouns := map[string]bool{}
	adjs := map[string]bool{}

	for _, id := range w.IDs() {
		e, _ := w.Get(id)
		words := nameWords(e.Name)
		for i, word := range words {
			if i == len(words)-1 {
				nouns[word] = true
			} else {
				adjs[word] = true
			}
		}
		for _, word := range listProp(e.Props["nouns"]) {
			nouns[word] = true
		}
		for _, word := range listProp(e.Props["adjectives"]) {
			adjs[word] = true
		}
		if topics, ok := e.Props["topics"].(map[string]any); ok {
			for key := range topics {
				for _, word := range nameWords(key) {
					nouns[word] = true
				}
			}
		}
	}

	var out []types.Word
	for word := range nouns {
		out = append(out, types.Word{Text: word, Class: types.ClassNoun})
	}
	for word := range adjs {
		if !nouns[word] {
			out = append(out, types.Word{Text: word, Class: types.ClassAdjective})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

// nameWords splits a display name into lowercase words without
// surrounding punctuation.
func nameWords(name string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(name)) {
		f = strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func listProp(v any) []string {
	switch list := v.(type) {
	case string:
		return nameWords(list)
	case []any:
		var out []string
		for _, x := range list {
			if s, ok := x.(string); ok {
				out = append(out, nameWords(s)...)
			}
		}
		return out
	case []string:
		var out []string
		for _, s := range list {
			out = append(out, nameWords(s)...)
		}
		return out
	default:
		return nil
	}
}
