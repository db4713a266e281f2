// Package loader loads Lua game content: world entities, game metadata and
// game-tier behavior modules. Handlers and reactions written in Lua stay
// callable for the whole session, so the VM lives as long as the Content.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

// VocabularyFile is the optional word catalog read from a game directory.
const VocabularyFile = "vocabulary.yaml"

// Content is a loaded game.
type Content struct {
	Game       types.GameDef
	World      *state.World
	Modules    []registry.Module // game tier, in source order
	Vocabulary []types.Word      // from VocabularyFile, if present
	Warnings   []string

	L *lua.LState
}

// Close releases the Lua VM. Lua handlers must not run afterwards.
func (c *Content) Close() {
	if c != nil && c.L != nil {
		c.L.Close()
		c.L = nil
	}
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	game     *lua.LTable
	player   *lua.LTable
	players  int
	entities []rawEntity
	modules  []rawModule
}

// Load reads all .lua files from dir, compiles them into a world and game
// modules, and validates references. A nil logger means slog.Default().
func Load(dir string, log *slog.Logger) (*Content, error) {
	if log == nil {
		log = slog.Default()
	}

	files, err := luaSources(dir)
	if err != nil {
		return nil, err
	}

	L := newSandbox()
	coll := &collector{}
	rt := &runtime{L: L, log: log}
	registerAPI(L, coll, rt)

	for _, f := range files {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			L.Close()
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	content, err := compile(coll, rt)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("compiling game data: %w", err)
	}
	content.L = L

	words, err := readVocabulary(filepath.Join(dir, VocabularyFile))
	if err != nil {
		L.Close()
		return nil, err
	}
	content.Vocabulary = words

	content.Warnings = warnings(content.World)
	for _, w := range content.Warnings {
		log.Warn("content", "dir", dir, "warning", w)
	}
	log.Info("game loaded",
		"title", content.Game.Title,
		"files", len(files),
		"entities", content.World.Len(),
		"modules", len(content.Modules))
	return content, nil
}

func readVocabulary(path string) ([]types.Word, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", VocabularyFile, err)
	}
	defer f.Close()

	words, err := vocab.LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", VocabularyFile, err)
	}
	return words, nil
}

// luaSources lists the .lua files in dir. game.lua runs first so later
// files can rely on the game definition; the rest run in name order.
func luaSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	slices.SortFunc(files, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == "game.lua":
			return -1
		case b == "game.lua":
			return 1
		}
		return strings.Compare(a, b)
	})
	return files, nil
}

// newSandbox creates a VM with only the base, table, string and math
// libraries, minus anything that reaches the filesystem, bypasses
// metatables or draws random numbers.
func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}

	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		math.RawSetString("random", lua.LNil)
		math.RawSetString("randomseed", lua.LNil)
	}
	return L
}
