package parser

import "github.com/nathoo/fablecore/types"

// slot binds one word-class position to a Command field.
type slot struct {
	class types.WordClass
	field func(*types.Command) **types.Word
}

type pattern []slot

func (p pattern) matches(words []*types.Word) bool {
	for i, s := range p {
		if words[i].Class != s.class {
			return false
		}
	}
	return true
}

func verb(c *types.Command) **types.Word { return &c.Verb }
func direct(c *types.Command) **types.Word { return &c.DirectObject }
func directAdj(c *types.Command) **types.Word { return &c.DirectAdjective }
func prep(c *types.Command) **types.Word { return &c.Preposition }
func indirect(c *types.Command) **types.Word { return &c.IndirectObject }
func indirectAdj(c *types.Command) **types.Word { return &c.IndirectAdjective }
func direction(c *types.Command) **types.Word { return &c.Direction }

var (
	sVerb        = slot{types.ClassVerb, verb}
	sDirect      = slot{types.ClassNoun, direct}
	sDirectAdj   = slot{types.ClassAdjective, directAdj}
	sPrep        = slot{types.ClassPreposition, prep}
	sIndirect    = slot{types.ClassNoun, indirect}
	sIndirectAdj = slot{types.ClassAdjective, indirectAdj}
	sDirection   = slot{types.ClassDirection, direction}
)

// patterns is the grammar, in priority order.
var patterns = []pattern{
	{sDirection},
	{sVerb},

	{sVerb, sDirect},
	{sVerb, sDirection},

	{sVerb, sDirectAdj, sDirect},
	{sVerb, sPrep, sDirect},
	{sVerb, sPrep, sDirection},

	{sVerb, sDirect, sPrep, sIndirect},
	{sVerb, sPrep, sDirectAdj, sDirect},

	{sVerb, sDirectAdj, sDirect, sPrep, sIndirect},
	{sVerb, sDirect, sPrep, sIndirectAdj, sIndirect},

	{sVerb, sDirectAdj, sDirect, sPrep, sIndirectAdj, sIndirect},
}

// byLength indexes patterns by word count, keeping priority order.
var byLength = func() [7][]pattern {
	var idx [7][]pattern
	for _, p := range patterns {
		idx[len(p)] = append(idx[len(p)], p)
	}
	return idx
}()

// Patterns returns the class shapes of the grammar in priority order.
func Patterns() [][]types.WordClass {
	out := make([][]types.WordClass, len(patterns))
	for i, p := range patterns {
		shape := make([]types.WordClass, len(p))
		for j, s := range p {
			shape[j] = s.class
		}
		out[i] = shape
	}
	return out
}
