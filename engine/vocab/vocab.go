// Package vocab builds the session vocabulary: an immutable catalog of typed
// words merged from the base catalog and every loaded module.
package vocab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/fablecore/types"
)

// ConflictError reports two modules claiming the same text incompatibly.
type ConflictError struct {
	Text     string
	Module   string // module making the rejected claim
	Owner    string // module that claimed the text first
	Existing types.WordClass
	Claimed  types.WordClass
	Synonym  bool // the conflicting text is a synonym claim
}

func (e *ConflictError) Error() string {
	if e.Synonym {
		return fmt.Sprintf("module %q: %q is already claimed by module %q", e.Module, e.Text, e.Owner)
	}
	return fmt.Sprintf("module %q: word %q declared as %s, already %s in module %q",
		e.Module, e.Text, ClassName(e.Claimed), ClassName(e.Existing), e.Owner)
}

var classNames = map[types.WordClass]string{
	types.ClassVerb:        "verb",
	types.ClassNoun:        "noun",
	types.ClassAdjective:   "adjective",
	types.ClassPreposition: "preposition",
	types.ClassDirection:   "direction",
	types.ClassArticle:     "article",
}

// ClassName returns the lowercase name of a word class.
func ClassName(c types.WordClass) string {
	if n, ok := classNames[c]; ok {
		return n
	}
	return "none"
}

// ParseClass maps a class name ("verb", "noun", ...) to a WordClass.
func ParseClass(name string) (types.WordClass, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range classNames {
		if n == name {
			return c, true
		}
	}
	return types.ClassNone, false
}

// entry is a word under construction plus bookkeeping.
type entry struct {
	word     *types.Word
	owner    string
	synonyms map[string]bool
}

// Builder accumulates word claims. Claims are merged in the order they
// arrive, so higher-precedence modules should be added first.
type Builder struct {
	entries map[string]*entry
	aliases map[string]string // synonym -> canonical text
	order   []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: map[string]*entry{},
		aliases: map[string]string{},
	}
}

// Add merges one word claimed by module into the builder.
func (b *Builder) Add(module string, w types.Word) error {
	text := normalize(w.Text)
	if text == "" {
		return fmt.Errorf("module %q: word with empty text", module)
	}
	if _, ok := classNames[w.Class]; !ok {
		return fmt.Errorf("module %q: word %q has no word class", module, text)
	}
	if canon, ok := b.aliases[text]; ok {
		return &ConflictError{Text: text, Module: module, Owner: b.entries[canon].owner, Synonym: true}
	}

	e, exists := b.entries[text]
	if exists && e.word.Class != w.Class {
		return &ConflictError{Text: text, Module: module, Owner: e.owner, Existing: e.word.Class, Claimed: w.Class}
	}

	// Check every synonym before touching state so a rejected claim
	// leaves the builder unchanged.
	var fresh []string
	seen := map[string]bool{}
	for _, s := range w.Synonyms {
		s = normalize(s)
		if s == "" || s == text || seen[s] {
			continue
		}
		seen[s] = true
		if canon, ok := b.aliases[s]; ok {
			if canon == text {
				continue
			}
			return &ConflictError{Text: s, Module: module, Owner: b.entries[canon].owner, Synonym: true}
		}
		if other, ok := b.entries[s]; ok {
			return &ConflictError{Text: s, Module: module, Owner: other.owner, Synonym: true}
		}
		fresh = append(fresh, s)
	}

	if !exists {
		e = &entry{
			word:     &types.Word{Text: text, Class: w.Class, Verbosity: w.Verbosity},
			owner:    module,
			synonyms: map[string]bool{},
		}
		b.entries[text] = e
		b.order = append(b.order, text)
	}
	e.word.ObjectRequired = e.word.ObjectRequired || w.ObjectRequired
	if e.word.Verbosity == "" {
		e.word.Verbosity = w.Verbosity
	}
	for _, s := range fresh {
		e.synonyms[s] = true
		b.aliases[s] = text
	}
	return nil
}

// AddAll adds every word, stopping at the first conflict.
func (b *Builder) AddAll(module string, words []types.Word) error {
	for _, w := range words {
		if err := b.Add(module, w); err != nil {
			return err
		}
	}
	return nil
}

// Build freezes the current claims into a Table. Tables share words with
// the builder, so one built before further Adds must be discarded.
func (b *Builder) Build() *Table {
	t := &Table{index: make(map[string]*types.Word, len(b.entries)+len(b.aliases))}
	for _, text := range b.order {
		e := b.entries[text]
		syns := make([]string, 0, len(e.synonyms))
		for s := range e.synonyms {
			syns = append(syns, s)
		}
		sort.Strings(syns)
		e.word.Synonyms = syns
		t.index[text] = e.word
		t.words = append(t.words, e.word)
	}
	for s, canon := range b.aliases {
		t.index[s] = b.entries[canon].word
	}
	sort.Slice(t.words, func(i, j int) bool { return t.words[i].Text < t.words[j].Text })
	return t
}

// Table is the immutable session vocabulary.
type Table struct {
	index map[string]*types.Word
	words []*types.Word
}

// Lookup resolves a token by canonical text or synonym.
func (t *Table) Lookup(token string) (*types.Word, bool) {
	w, ok := t.index[token]
	return w, ok
}

// Words returns every canonical entry sorted by text.
func (t *Table) Words() []*types.Word {
	return t.words
}

// Len returns the number of canonical entries.
func (t *Table) Len() int {
	return len(t.words)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
