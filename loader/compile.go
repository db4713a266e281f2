package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pixil98/go-errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

// DefaultHealth is the health of an actor that declares none.
const DefaultHealth = 10

// rawEntity holds an entity table before compilation.
type rawEntity struct {
	id    string
	kind  types.EntityKind
	table *lua.LTable
}

// rawModule holds a module table before compilation.
type rawModule struct {
	name  string
	table *lua.LTable
}

// Structural keys per kind. Everything else becomes a property.
var (
	commonKeys = []string{"name", "description", "behaviors"}
	kindKeys   = map[types.EntityKind][]string{
		types.KindLocation: {"exits"},
		types.KindItem:     {"in", "portable"},
		types.KindActor:    {"at", "health", "max_health", "conditions"},
		types.KindLock:     {"locked", "keys"},
		types.KindExit:     {"from", "direction", "to", "lock"},
	}
	moduleKeys = map[string]bool{"vocabulary": true, "handlers": true, "reactions": true}
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getIntOr returns an integer field from a Lua table, or def if missing.
func getIntOr(tbl *lua.LTable, key string, def int) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return def
}

func getInt(tbl *lua.LTable, key string) int {
	return getIntOr(tbl, key, 0)
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// toGoValue converts a Lua value to a Go value recursively. Integral
// numbers become int, sequences become []any, other tables map[string]any.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if n := val.MaxN(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		return tableToAnyMap(val)
	default:
		return nil
	}
}

// tableToAnyMap converts the string-keyed fields of a Lua table.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m[string(ks)] = toGoValue(v)
		}
	})
	return m
}

// toStrings reads a list of strings. A single string is a one-element list.
func toStrings(v lua.LValue) []string {
	switch val := v.(type) {
	case lua.LString:
		return []string{string(val)}
	case *lua.LTable:
		var out []string
		for i := 1; i <= val.MaxN(); i++ {
			if s, ok := val.RawGetInt(i).(lua.LString); ok {
				out = append(out, string(s))
			}
		}
		return out
	default:
		return nil
	}
}

// toLuaValue converts a Go value, as stored in properties and outcome
// data, to Lua.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		tbl := L.NewTable()
		for _, s := range val {
			tbl.Append(lua.LString(s))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for _, x := range val {
			tbl.Append(toLuaValue(L, x))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, x := range val {
			tbl.RawSetString(k, toLuaValue(L, x))
		}
		return tbl
	case types.Condition:
		return conditionTable(L, val)
	case []types.Condition:
		tbl := L.NewTable()
		for _, c := range val {
			tbl.Append(conditionTable(L, c))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// compile converts the collected Lua data into Content and validates the
// resulting world. Every problem found is reported.
func compile(coll *collector, rt *runtime) (*Content, error) {
	el := errors.NewErrorList()

	var game types.GameDef
	order := types.OrderSorted
	if coll.game == nil {
		el.Add(fmt.Errorf("no Game{} definition found"))
	} else {
		var err error
		game, order, err = compileGame(coll.game)
		el.Add(err)
	}

	raws := coll.entities
	switch {
	case coll.players == 0:
		el.Add(fmt.Errorf("no Player{} definition found"))
	case coll.players > 1:
		el.Add(fmt.Errorf("Player{} defined %d times", coll.players))
	default:
		raws = append([]rawEntity{{id: types.PlayerID, kind: types.KindActor, table: coll.player}}, raws...)
	}

	world := state.New(order)
	for _, raw := range raws {
		entities, err := compileEntity(raw)
		if err != nil {
			el.Add(err)
			continue
		}
		for _, e := range entities {
			el.Add(world.Add(e))
		}
	}

	var modules []registry.Module
	seen := map[string]bool{}
	for _, raw := range coll.modules {
		if seen[raw.name] {
			el.Add(fmt.Errorf("module %q defined twice", raw.name))
			continue
		}
		seen[raw.name] = true
		m, err := compileModule(raw, rt)
		if err != nil {
			el.Add(err)
			continue
		}
		modules = append(modules, m)
	}

	if err := el.Err(); err != nil {
		return nil, err
	}
	if err := world.Validate(); err != nil {
		return nil, fmt.Errorf("invalid world: %w", err)
	}

	return &Content{Game: game, World: world, Modules: modules}, nil
}

func compileGame(tbl *lua.LTable) (types.GameDef, types.TurnOrder, error) {
	game := types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Intro:   getString(tbl, "intro"),
	}

	el := errors.NewErrorList()
	if game.Title == "" {
		el.Add(fmt.Errorf("Game.title is required"))
	}
	order := types.TurnOrder(getString(tbl, "turn_order"))
	switch order {
	case "":
		order = types.OrderSorted
	case types.OrderSorted, types.OrderShuffled:
	default:
		el.Add(fmt.Errorf("Game.turn_order %q: want %q or %q", order, types.OrderSorted, types.OrderShuffled))
	}
	return game, order, el.Err()
}

// compileEntity compiles one definition. A location may also yield the
// exits declared in its exits table.
func compileEntity(raw rawEntity) ([]types.Entity, error) {
	tbl := raw.table
	e := types.Entity{
		ID:          raw.id,
		Kind:        raw.kind,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Behaviors:   toStrings(tbl.RawGetString("behaviors")),
		Props:       props(tbl, raw.kind),
	}
	if e.Name == "" && raw.kind != types.KindExit {
		e.Name = strings.ReplaceAll(raw.id, "_", " ")
	}
	if raw.id == types.PlayerID && getString(tbl, "name") == "" {
		e.Name = "you"
	}

	var extra []types.Entity
	switch raw.kind {
	case types.KindLocation:
		e.Location = &types.LocationData{}
		exits, err := compileExits(raw.id, getTable(tbl, "exits"))
		if err != nil {
			return nil, err
		}
		extra = exits

	case types.KindItem:
		e.Item = &types.ItemData{
			Container: getString(tbl, "in"),
			Portable:  getBool(tbl, "portable", true),
		}

	case types.KindActor:
		health := getIntOr(tbl, "health", DefaultHealth)
		e.Actor = &types.ActorData{
			Location:  getString(tbl, "at"),
			Health:    health,
			MaxHealth: getIntOr(tbl, "max_health", health),
		}
		if v := tbl.RawGetString("conditions"); v != lua.LNil {
			conds, err := toConditions(v)
			if err != nil {
				return nil, fmt.Errorf("actor %q: %w", raw.id, err)
			}
			e.Actor.Conditions = conds
		}

	case types.KindLock:
		e.Lock = &types.LockData{
			Locked: getBool(tbl, "locked", true),
			Keys:   toStrings(tbl.RawGetString("keys")),
		}

	case types.KindExit:
		e.Exit = &types.ExitData{
			From:        getString(tbl, "from"),
			Direction:   strings.ToLower(getString(tbl, "direction")),
			Destination: getString(tbl, "to"),
			Lock:        getString(tbl, "lock"),
		}
	}

	return append([]types.Entity{e}, extra...), nil
}

// compileExits expands a location's exits table. A value is either the
// destination id or a table with "to" plus any exit fields. Generated
// exits are named <location>_<direction>.
func compileExits(from string, tbl *lua.LTable) ([]types.Entity, error) {
	if tbl == nil {
		return nil, nil
	}

	var dirs []string
	var bad error
	tbl.ForEach(func(k, _ lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			bad = fmt.Errorf("location %q: exits must be keyed by direction", from)
			return
		}
		dirs = append(dirs, string(ks))
	})
	if bad != nil {
		return nil, bad
	}
	sort.Strings(dirs)

	out := make([]types.Entity, 0, len(dirs))
	for _, dir := range dirs {
		def := rawEntity{id: from + "_" + strings.ToLower(dir), kind: types.KindExit}
		switch v := tbl.RawGetString(dir).(type) {
		case lua.LString:
			def.table = &lua.LTable{}
			def.table.RawSetString("to", v)
		case *lua.LTable:
			def.table = v
		default:
			return nil, fmt.Errorf("location %q: exit %q is a %s, want a destination", from, dir, v.Type())
		}
		def.table.RawSetString("from", lua.LString(from))
		def.table.RawSetString("direction", lua.LString(dir))
		exits, err := compileEntity(def)
		if err != nil {
			return nil, err
		}
		out = append(out, exits...)
	}
	return out, nil
}

// props collects every non-structural field of a definition.
func props(tbl *lua.LTable, kind types.EntityKind) map[string]any {
	skip := map[string]bool{}
	for _, k := range commonKeys {
		skip[k] = true
	}
	for _, k := range kindKeys[kind] {
		skip[k] = true
	}

	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok && !skip[string(ks)] {
			m[string(ks)] = toGoValue(v)
		}
	})
	return m
}

// compileModule turns a Module table into a registry module whose handlers
// and reactions call back into Lua.
func compileModule(raw rawModule, rt *runtime) (registry.Module, error) {
	el := errors.NewErrorList()
	m := registry.Module{
		Name:      raw.name,
		Handlers:  map[string]registry.Handler{},
		Reactions: map[string]registry.Reaction{},
	}

	raw.table.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); !ok || !moduleKeys[string(ks)] {
			el.Add(fmt.Errorf("module %q: unknown field %s", raw.name, k.String()))
		}
	})

	if words := getTable(raw.table, "vocabulary"); words != nil {
		for i := 1; i <= words.MaxN(); i++ {
			wt, ok := words.RawGetInt(i).(*lua.LTable)
			if !ok {
				el.Add(fmt.Errorf("module %q: vocabulary[%d] is not a table", raw.name, i))
				continue
			}
			w, err := compileWord(wt)
			if err != nil {
				el.Add(fmt.Errorf("module %q: vocabulary[%d]: %w", raw.name, i, err))
				continue
			}
			m.Vocabulary = append(m.Vocabulary, w)
		}
	}

	functions := func(field string, bind func(name string, fn *lua.LFunction)) {
		tbl := getTable(raw.table, field)
		if tbl == nil {
			return
		}
		tbl.ForEach(func(k, v lua.LValue) {
			name, ok := k.(lua.LString)
			fn, isFn := v.(*lua.LFunction)
			if !ok || !isFn {
				el.Add(fmt.Errorf("module %q: %s entry %s must map a name to a function", raw.name, field, k.String()))
				return
			}
			bind(string(name), fn)
		})
	}
	functions("handlers", func(verb string, fn *lua.LFunction) {
		m.Handlers[strings.ToLower(verb)] = rt.handler(raw.name, verb, fn)
	})
	functions("reactions", func(event string, fn *lua.LFunction) {
		m.Reactions[event] = rt.reaction(raw.name, event, fn)
	})

	return m, el.Err()
}

func compileWord(tbl *lua.LTable) (types.Word, error) {
	text := getString(tbl, "text")
	if text == "" {
		return types.Word{}, fmt.Errorf("text is required")
	}
	class, ok := vocab.ParseClass(getString(tbl, "class"))
	if !ok {
		return types.Word{}, fmt.Errorf("%q: unknown class %q", text, getString(tbl, "class"))
	}
	return types.Word{
		Text:           text,
		Class:          class,
		Synonyms:       toStrings(tbl.RawGetString("synonyms")),
		ObjectRequired: getBool(tbl, "object_required", false),
		Verbosity:      getString(tbl, "verbosity"),
	}, nil
}
