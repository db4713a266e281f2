package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/types"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector, rt *runtime) {
	registerConstructors(L, coll)
	registerOutcomeHelpers(L)
	registerChangeHelpers(L)
	rt.registerWorldHelpers()
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Player { at = "...", ... } is the reserved player actor.
	L.SetGlobal("Player", L.NewFunction(func(L *lua.LState) int {
		coll.player = L.CheckTable(1)
		coll.players++
		return 0
	}))

	// Location "id" { ... } and friends are curried: the first call takes
	// the id and returns a function that takes the definition table.
	for global, kind := range map[string]types.EntityKind{
		"Location": types.KindLocation,
		"Item":     types.KindItem,
		"Actor":    types.KindActor,
		"Lock":     types.KindLock,
		"Exit":     types.KindExit,
	} {
		L.SetGlobal(global, L.NewFunction(entityConstructor(coll, kind)))
	}

	// Module "name" { vocabulary = {...}, handlers = {...}, reactions = {...} }
	L.SetGlobal("Module", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.modules = append(coll.modules, rawModule{name: name, table: tbl})
			return 0
		}))
		return 1
	}))
}

func entityConstructor(coll *collector, kind types.EntityKind) lua.LGFunction {
	return func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.entities = append(coll.entities, rawEntity{id: id, kind: kind, table: tbl})
			return 0
		}))
		return 1
	}
}

// Outcome helpers build the tables handlers and reactions return.
func registerOutcomeHelpers(L *lua.LState) {
	outcome := func(success, vetoed bool) lua.LGFunction {
		return func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("success", lua.LBool(success))
			if vetoed {
				tbl.RawSetString("vetoed", lua.LTrue)
			}
			tbl.RawSetString("message", lua.LString(L.OptString(1, "")))
			if data, ok := L.Get(2).(*lua.LTable); ok {
				tbl.RawSetString("data", data)
			}
			L.Push(tbl)
			return 1
		}
	}

	// Ok("msg" [, data]) succeeds; the turn proceeds.
	L.SetGlobal("Ok", L.NewFunction(outcome(true, false)))
	// Fail("msg" [, data]) fails; no turn is consumed.
	L.SetGlobal("Fail", L.NewFunction(outcome(false, false)))
	// Veto("msg") refuses a pending mutation from an on_<verb> reaction.
	L.SetGlobal("Veto", L.NewFunction(outcome(false, true)))
	// Allow("msg") lets a pending mutation through with a message.
	L.SetGlobal("Allow", L.NewFunction(outcome(true, false)))
}

// Change helpers build the change tables passed to Apply.
func registerChangeHelpers(L *lua.LState) {
	change := func(op string, prefix string) lua.LGFunction {
		return func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("field", lua.LString(prefix+L.CheckString(1)))
			tbl.RawSetString("op", lua.LString(op))
			tbl.RawSetString("value", L.Get(2))
			L.Push(tbl)
			return 1
		}
	}

	// Set("field", value)
	L.SetGlobal("Set", L.NewFunction(change(opSet, "")))
	// Add("field", delta)
	L.SetGlobal("Add", L.NewFunction(change(opAdd, "")))
	// Unset("field" [, element])
	L.SetGlobal("Unset", L.NewFunction(change(opUnset, "")))
	// SetProp("key", value)
	L.SetGlobal("SetProp", L.NewFunction(change(opSet, gate.PropPrefix)))

	// Condition("poisoned", remaining, damage) applies or replaces a
	// condition; a missing duration means permanent.
	L.SetGlobal("Condition", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		value := L.NewTable()
		value.RawSetString("remaining", lua.LNumber(L.OptInt(2, -1)))
		value.RawSetString("damage", lua.LNumber(L.OptInt(3, 0)))
		tbl := L.NewTable()
		tbl.RawSetString("field", lua.LString(gate.ConditionPrefix+name))
		tbl.RawSetString("op", lua.LString(opSet))
		tbl.RawSetString("value", value)
		L.Push(tbl)
		return 1
	}))

	// Cure("poisoned") removes a condition.
	L.SetGlobal("Cure", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("field", lua.LString(gate.ConditionPrefix+L.CheckString(1)))
		tbl.RawSetString("op", lua.LString(opUnset))
		L.Push(tbl)
		return 1
	}))
}
