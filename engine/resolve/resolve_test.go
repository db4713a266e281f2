package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

func testWorld(t *testing.T) *state.World {
	t.Helper()
	w := state.New("")
	for _, e := range []types.Entity{
		{ID: "hall", Kind: types.KindLocation, Name: "Hall", Location: &types.LocationData{}},
		{ID: "vault", Kind: types.KindLocation, Name: "Vault", Location: &types.LocationData{}},
		{ID: types.PlayerID, Kind: types.KindActor, Name: "you", Actor: &types.ActorData{Location: "hall", Health: 5}},
		{ID: "guard", Kind: types.KindActor, Name: "Old Guard", Actor: &types.ActorData{Location: "hall", Health: 5}},
		{ID: "rusty_key", Kind: types.KindItem, Name: "Rusty Key", Item: &types.ItemData{Container: "hall"}},
		{ID: "golden_key", Kind: types.KindItem, Name: "Golden Key", Item: &types.ItemData{Container: types.PlayerID}},
		{ID: "vault_key", Kind: types.KindItem, Name: "Silver Key", Item: &types.ItemData{Container: "vault"}},
		{ID: "chest", Kind: types.KindItem, Name: "Chest", Item: &types.ItemData{Container: "hall"},
			Props: map[string]any{"closed": true, "nouns": []any{"box", "trunk"}}},
		{ID: "gem", Kind: types.KindItem, Name: "Gem", Item: &types.ItemData{Container: "chest"}},
		{ID: "vault_lock", Kind: types.KindLock, Name: "Iron Door", Lock: &types.LockData{Locked: true},
			Props: map[string]any{"adjectives": []string{"heavy"}}},
		{ID: "hall_east", Kind: types.KindExit, Name: "doorway", Exit: &types.ExitData{
			From: "hall", Direction: "east", Destination: "vault", Lock: "vault_lock"}},
	} {
		require.NoError(t, w.Add(e))
	}
	require.NoError(t, w.Validate())
	return w
}

func word(text string, syns ...string) *types.Word {
	return &types.Word{Text: text, Synonyms: syns}
}

func TestScope(t *testing.T) {
	w := testWorld(t)
	assert.Equal(t,
		[]string{"chest", "golden_key", "guard", "hall", "hall_east", "player", "rusty_key", "vault_lock"},
		Scope(w, types.PlayerID))
}

func TestPhrase(t *testing.T) {
	w := testWorld(t)
	tests := []struct {
		name string
		adj  *types.Word
		noun *types.Word
		want string
	}{
		{"adjective disambiguates", word("rusty"), word("key"), "rusty_key"},
		{"carried item", word("golden"), word("key"), "golden_key"},
		{"name word", nil, word("guard"), "guard"},
		{"nouns property", nil, word("trunk"), "chest"},
		{"noun synonym", nil, word("coffer", "chest"), "chest"},
		{"adjectives property", word("heavy"), word("door"), "vault_lock"},
		{"id segment", nil, word("lock"), "vault_lock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Phrase(w, types.PlayerID, tt.adj, tt.noun)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestPhrase_Ambiguous(t *testing.T) {
	w := testWorld(t)
	_, err := Phrase(w, types.PlayerID, nil, word("key"))
	var ae *AmbiguityError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []string{"Golden Key", "Rusty Key"}, ae.Candidates)
	assert.Equal(t, "which key? (Golden Key, Rusty Key)", err.Error())
}

func TestPhrase_NotFound(t *testing.T) {
	w := testWorld(t)
	for _, tc := range []struct{ adj, noun *types.Word }{
		{nil, word("gem")},            // inside a closed chest
		{word("silver"), word("key")}, // in another room
		{word("blue"), word("chest")},
	} {
		_, err := Phrase(w, types.PlayerID, tc.adj, tc.noun)
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
	}
}

func TestCommand(t *testing.T) {
	w := testWorld(t)
	res, err := Command(w, types.PlayerID, types.Command{
		Verb:              word("unlock"),
		DirectObject:      word("door"),
		IndirectAdjective: word("golden"),
		IndirectObject:    word("key"),
	})
	require.NoError(t, err)
	assert.Equal(t, Result{DirectID: "vault_lock", IndirectID: "golden_key"}, res)

	res, err = Command(w, types.PlayerID, types.Command{Verb: word("look")})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
