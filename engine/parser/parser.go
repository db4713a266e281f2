// Package parser converts command strings into Command structs.
// Intentionally dumb: no NLP, just vocabulary lookup and a fixed table of
// grammar patterns where the first match wins.
package parser

import (
	"fmt"
	"strings"

	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

// ErrorKind classifies parse failures so callers can decide whether to
// hand the input to a fallback interpreter.
type ErrorKind int

const (
	ErrEmptyInput ErrorKind = iota + 1
	ErrUnknownWord
	ErrNoGrammarMatch
)

// Error is a typed parse failure.
type Error struct {
	Kind  ErrorKind
	Token string // the unresolved token for ErrUnknownWord
	Input string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrEmptyInput:
		return "empty input"
	case ErrUnknownWord:
		return "unknown word: " + e.Token
	default:
		return fmt.Sprintf("no grammar match for %q", e.Input)
	}
}

// Parse converts a raw command string into a Command using the vocabulary.
// It is a pure function of its arguments.
func Parse(vt *vocab.Table, input string) (types.Command, error) {
	tokens := strings.Fields(strings.ToLower(input))
	if len(tokens) == 0 {
		return types.Command{}, &Error{Kind: ErrEmptyInput, Input: input}
	}

	// Resolve every token, dropping articles as we go.
	words := make([]*types.Word, 0, len(tokens))
	for _, tok := range tokens {
		w, ok := vt.Lookup(tok)
		if !ok {
			return types.Command{}, &Error{Kind: ErrUnknownWord, Token: tok, Input: input}
		}
		if w.Class == types.ClassArticle {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return types.Command{}, &Error{Kind: ErrNoGrammarMatch, Input: input}
	}

	p, ok := match(words)
	if !ok {
		return types.Command{}, &Error{Kind: ErrNoGrammarMatch, Input: input}
	}

	cmd := types.Command{Raw: input}
	for i, s := range p {
		*s.field(&cmd) = words[i]
	}
	return cmd, nil
}

// match returns the first pattern whose shape equals the word classes.
func match(words []*types.Word) (pattern, bool) {
	if len(words) >= len(byLength) {
		return nil, false
	}
	for _, p := range byLength[len(words)] {
		if p.matches(words) {
			return p, true
		}
	}
	return nil, false
}
