package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_InternIsStable(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("on_take")
	b := tbl.Intern("on_drop")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, tbl.Intern("on_take"))
	assert.Equal(t, "on_drop", tbl.Name(b))
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_LookupUnknown(t *testing.T) {
	tbl := NewTable()
	assert.Equal(t, None, tbl.Lookup("on_take"))
	assert.Equal(t, "", tbl.Name(None))
	assert.Equal(t, "", tbl.Name(42))
}

func TestTable_ContributeRecordsModulesOnce(t *testing.T) {
	tbl := NewTable()
	tbl.Contribute("on_take", "guarded")
	tbl.Contribute("on_take", "immovable")
	tbl.Contribute("on_take", "guarded")
	tbl.Contribute("on_turn", "hostile")

	entries := tbl.Entries()
	assert.Equal(t, []Entry{
		{Name: "on_take", Modules: []string{"guarded", "immovable"}},
		{Name: "on_turn", Modules: []string{"hostile"}},
	}, entries)

	// Entries is a copy.
	entries[0].Modules[0] = "mutated"
	assert.Equal(t, "guarded", tbl.Entries()[0].Modules[0])
}

func TestBeforeAfter(t *testing.T) {
	assert.Equal(t, "on_take", Before("take"))
	assert.Equal(t, "after_take", After("take"))
}
