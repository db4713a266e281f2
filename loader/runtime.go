package loader

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/fablecore/engine/gate"
	"github.com/nathoo/fablecore/engine/registry"
	"github.com/nathoo/fablecore/engine/resolve"
	"github.com/nathoo/fablecore/types"
)

// ScriptVerb is the gate verb used by Apply when a script names none.
const ScriptVerb = "script"

// Change operation names as written in Lua.
const (
	opSet   = "set"
	opAdd   = "add"
	opUnset = "unset"
)

// runtime calls Lua handlers and reactions. The context of the innermost
// call is on top of the stack; world helpers read and write through it.
type runtime struct {
	L     *lua.LState
	log   *slog.Logger
	stack []*registry.Context
}

func (rt *runtime) push(ctx *registry.Context) { rt.stack = append(rt.stack, ctx) }
func (rt *runtime) pop() { rt.stack = rt.stack[:len(rt.stack)-1] }

// current returns the active context or raises a Lua error.
func (rt *runtime) current(L *lua.LState, fn string) *registry.Context {
	if len(rt.stack) == 0 {
		L.RaiseError("%s called outside a handler or reaction", fn)
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

// handler wraps a Lua function(ctx, cmd, next) as a registry handler.
func (rt *runtime) handler(module, verb string, fn *lua.LFunction) registry.Handler {
	return func(ctx *registry.Context, cmd types.Command, next registry.Next) types.Outcome {
		rt.push(ctx)
		defer rt.pop()

		nextFn := rt.L.NewFunction(func(L *lua.LState) int {
			L.Push(outcomeTable(L, next()))
			return 1
		})
		out, err := rt.call(fn, contextTable(rt.L, ctx), commandTable(rt.L, ctx, cmd), nextFn)
		if err != nil {
			rt.log.Error("lua handler failed", "module", module, "verb", verb, "error", err)
			return types.Outcome{Data: map[string]any{"error": err.Error()}}
		}
		return out
	}
}

// reaction wraps a Lua function(ctx, ev) as a registry reaction. A failing
// reaction neither vetoes nor reports a message.
func (rt *runtime) reaction(module, event string, fn *lua.LFunction) registry.Reaction {
	return func(ctx *registry.Context, ev registry.Event) types.Outcome {
		rt.push(ctx)
		defer rt.pop()

		out, err := rt.call(fn, contextTable(rt.L, ctx), eventTable(rt.L, ev))
		if err != nil {
			rt.log.Error("lua reaction failed", "module", module, "event", event, "entity", ev.EntityID, "error", err)
			return types.Outcome{Success: true}
		}
		return out
	}
}

func (rt *runtime) call(fn *lua.LFunction, args ...lua.LValue) (types.Outcome, error) {
	if err := rt.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return types.Outcome{}, err
	}
	ret := rt.L.Get(-1)
	rt.L.Pop(1)
	return toOutcome(ret)
}

// toOutcome reads a handler's return value: nil or a string succeed, a
// table carries success, message, vetoed and data.
func toOutcome(v lua.LValue) (types.Outcome, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return types.Outcome{Success: true}, nil
	case lua.LString:
		return types.Outcome{Success: true, Message: string(val)}, nil
	case *lua.LTable:
		out := types.Outcome{
			Vetoed:  getBool(val, "vetoed", false),
			Message: getString(val, "message"),
		}
		out.Success = getBool(val, "success", !out.Vetoed)
		if data := getTable(val, "data"); data != nil {
			out.Data = tableToAnyMap(data)
		}
		return out, nil
	default:
		return types.Outcome{}, fmt.Errorf("returned a %s, want an outcome table", v.Type())
	}
}

func outcomeTable(L *lua.LState, out types.Outcome) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("success", lua.LBool(out.Success))
	tbl.RawSetString("message", lua.LString(out.Message))
	if out.Vetoed {
		tbl.RawSetString("vetoed", lua.LTrue)
	}
	if out.Unrecognized {
		tbl.RawSetString("unrecognized", lua.LTrue)
	}
	if len(out.Data) > 0 {
		tbl.RawSetString("data", toLuaValue(L, out.Data))
	}
	return tbl
}

func contextTable(L *lua.LState, ctx *registry.Context) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("actor", lua.LString(ctx.ActorID))
	tbl.RawSetString("turn", lua.LNumber(ctx.World.Turn))
	return tbl
}

// commandTable exposes a command to Lua. Object words are resolved in the
// acting actor's scope; a failed resolution is reported in "error".
func commandTable(L *lua.LState, ctx *registry.Context, cmd types.Command) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("raw", lua.LString(cmd.Raw))
	for key, w := range map[string]*types.Word{
		"verb":       cmd.Verb,
		"object":     cmd.DirectObject,
		"object_adj": cmd.DirectAdjective,
		"prep":       cmd.Preposition,
		"target":     cmd.IndirectObject,
		"target_adj": cmd.IndirectAdjective,
		"direction":  cmd.Direction,
	} {
		if w != nil {
			tbl.RawSetString(key, lua.LString(w.Text))
		}
	}

	var errs []string
	if cmd.DirectObject != nil {
		if id, err := resolve.Phrase(ctx.World, ctx.ActorID, cmd.DirectAdjective, cmd.DirectObject); err != nil {
			errs = append(errs, err.Error())
		} else {
			tbl.RawSetString("object_id", lua.LString(id))
		}
	}
	if cmd.IndirectObject != nil {
		if id, err := resolve.Phrase(ctx.World, ctx.ActorID, cmd.IndirectAdjective, cmd.IndirectObject); err != nil {
			errs = append(errs, err.Error())
		} else {
			tbl.RawSetString("target_id", lua.LString(id))
		}
	}
	if len(errs) > 0 {
		tbl.RawSetString("error", lua.LString(strings.Join(errs, "; ")))
	}
	return tbl
}

func eventTable(L *lua.LState, ev registry.Event) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("name", lua.LString(ev.Name))
	tbl.RawSetString("entity", lua.LString(ev.EntityID))
	tbl.RawSetString("verb", lua.LString(ev.Verb))
	tbl.RawSetString("actor", lua.LString(ev.ActorID))
	changes := L.NewTable()
	for _, c := range ev.Changes {
		ct := L.NewTable()
		ct.RawSetString("field", lua.LString(c.Field))
		ct.RawSetString("op", lua.LString(opString(c.Op)))
		ct.RawSetString("value", toLuaValue(L, c.Value))
		changes.Append(ct)
	}
	tbl.RawSetString("changes", changes)
	if len(ev.Data) > 0 {
		tbl.RawSetString("data", toLuaValue(L, ev.Data))
	}
	return tbl
}

func opString(op types.ChangeOp) string {
	switch op {
	case types.OpAdd:
		return opAdd
	case types.OpUnset:
		return opUnset
	default:
		return opSet
	}
}

// registerWorldHelpers registers the globals that read the world and
// submit changes. They are only usable while a handler or reaction runs.
func (rt *runtime) registerWorldHelpers() {
	L := rt.L

	// Get("id") returns a read-only view of an entity, or nil.
	L.SetGlobal("Get", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Get")
		e, ok := ctx.World.Get(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(entityTable(L, e))
		return 1
	}))

	// Prop("id", "key") returns a property value, or nil.
	L.SetGlobal("Prop", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Prop")
		v, _ := ctx.World.Prop(L.CheckString(1), L.CheckString(2))
		L.Push(toLuaValue(L, v))
		return 1
	}))

	// Here(["id"]) returns the location enclosing an entity, by default
	// the acting actor.
	L.SetGlobal("Here", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Here")
		L.Push(lua.LString(ctx.World.LocationOf(L.OptString(1, ctx.ActorID))))
		return 1
	}))

	// Holds("actor", "item")
	L.SetGlobal("Holds", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Holds")
		L.Push(lua.LBool(ctx.World.Holds(L.CheckString(1), L.CheckString(2))))
		return 1
	}))

	// Contents("container") lists the items directly inside.
	L.SetGlobal("Contents", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Contents")
		L.Push(toLuaValue(L, ctx.World.Contents(L.CheckString(1))))
		return 1
	}))

	// ActorsAt("location")
	L.SetGlobal("ActorsAt", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "ActorsAt")
		L.Push(toLuaValue(L, ctx.World.ActorsAt(L.CheckString(1))))
		return 1
	}))

	// Apply("id", {changes...} [, "verb"]) submits changes through the
	// mutation gate and returns {applied, vetoed, message, error}.
	L.SetGlobal("Apply", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Apply")
		id := L.CheckString(1)
		list := L.CheckTable(2)
		verb := L.OptString(3, ScriptVerb)

		var changes []types.Change
		var bad error
		list.ForEach(func(_, v lua.LValue) {
			if bad != nil {
				return
			}
			tbl, ok := v.(*lua.LTable)
			if !ok {
				bad = fmt.Errorf("change is a %s, want a table", v.Type())
				return
			}
			c, err := toChange(tbl)
			if err != nil {
				bad = err
				return
			}
			changes = append(changes, c)
		})
		if bad != nil {
			L.ArgError(2, bad.Error())
			return 0
		}

		L.Push(mutationTable(L, ctx.Gate.Apply(id, changes, verb, ctx.ActorID)))
		return 1
	}))

	// Schedule(delay, "id", "event") fires event on the entity after delay
	// turns. Returns true, or nil and an error message.
	L.SetGlobal("Schedule", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Schedule")
		err := ctx.World.ScheduleEvent(L.CheckInt(1), L.CheckString(2), L.CheckString(3))
		return pushResult(L, err)
	}))

	// Remove("id") removes an item or actor once the turn ends.
	L.SetGlobal("Remove", L.NewFunction(func(L *lua.LState) int {
		ctx := rt.current(L, "Remove")
		return pushResult(L, ctx.World.ScheduleRemoval(L.CheckString(1)))
	}))
}

func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func mutationTable(L *lua.LState, res types.MutationResult) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("applied", lua.LBool(res.Applied))
	tbl.RawSetString("vetoed", lua.LBool(res.Vetoed))
	tbl.RawSetString("message", lua.LString(res.Message))
	if res.Err != nil {
		tbl.RawSetString("error", lua.LString(res.Err.Error()))
	}
	return tbl
}

// entityTable flattens an entity and its variant into one table.
func entityTable(L *lua.LState, e *types.Entity) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("id", lua.LString(e.ID))
	tbl.RawSetString("kind", lua.LString(string(e.Kind)))
	tbl.RawSetString("name", lua.LString(e.Name))
	tbl.RawSetString("description", lua.LString(e.Description))
	tbl.RawSetString("props", toLuaValue(L, e.Props))
	tbl.RawSetString("behaviors", toLuaValue(L, e.Behaviors))

	switch {
	case e.Item != nil:
		tbl.RawSetString("container", lua.LString(e.Item.Container))
		tbl.RawSetString("portable", lua.LBool(e.Item.Portable))
	case e.Actor != nil:
		tbl.RawSetString("location", lua.LString(e.Actor.Location))
		tbl.RawSetString("health", lua.LNumber(e.Actor.Health))
		tbl.RawSetString("max_health", lua.LNumber(e.Actor.MaxHealth))
		conds := L.NewTable()
		for _, c := range e.Actor.Conditions {
			conds.RawSetString(c.Name, conditionTable(L, c))
		}
		tbl.RawSetString("conditions", conds)
	case e.Lock != nil:
		tbl.RawSetString("locked", lua.LBool(e.Lock.Locked))
		tbl.RawSetString("keys", toLuaValue(L, e.Lock.Keys))
	case e.Exit != nil:
		tbl.RawSetString("from", lua.LString(e.Exit.From))
		tbl.RawSetString("direction", lua.LString(e.Exit.Direction))
		tbl.RawSetString("destination", lua.LString(e.Exit.Destination))
		if e.Exit.Lock != "" {
			tbl.RawSetString("lock", lua.LString(e.Exit.Lock))
		}
	}
	return tbl
}

func conditionTable(L *lua.LState, c types.Condition) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("name", lua.LString(c.Name))
	tbl.RawSetString("remaining", lua.LNumber(c.Remaining))
	tbl.RawSetString("damage", lua.LNumber(c.Damage))
	return tbl
}

// toChange converts a change table. Values of structured fields are
// converted to the types the gate expects.
func toChange(tbl *lua.LTable) (types.Change, error) {
	field := getString(tbl, "field")
	if field == "" {
		return types.Change{}, fmt.Errorf("change without a field")
	}
	raw := tbl.RawGetString("value")

	var op types.ChangeOp
	switch getString(tbl, "op") {
	case opSet, "":
		op = types.OpSet
	case opAdd:
		op = types.OpAdd
	case opUnset:
		op = types.OpUnset
	default:
		return types.Change{}, fmt.Errorf("change %q: unknown op %q", field, getString(tbl, "op"))
	}

	var value any
	switch {
	case field == "conditions" && op == types.OpSet:
		conds, err := toConditions(raw)
		if err != nil {
			return types.Change{}, fmt.Errorf("change %q: %w", field, err)
		}
		value = conds
	case strings.HasPrefix(field, gate.ConditionPrefix) && op == types.OpSet:
		ct, ok := raw.(*lua.LTable)
		if !ok {
			return types.Change{}, fmt.Errorf("change %q: want a condition table", field)
		}
		value = toCondition(strings.TrimPrefix(field, gate.ConditionPrefix), ct)
	case field == "keys" && op == types.OpSet:
		value = toStrings(raw)
	default:
		value = toGoValue(raw)
	}
	return types.Change{Field: field, Op: op, Value: value}, nil
}

func toConditions(v lua.LValue) ([]types.Condition, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		if v == lua.LNil {
			return []types.Condition{}, nil
		}
		return nil, fmt.Errorf("want a list of conditions, got %s", v.Type())
	}

	// List entries keep their order; keyed entries follow, sorted by name.
	var listed, keyed []types.Condition
	var bad error
	tbl.ForEach(func(k, v lua.LValue) {
		ct, ok := v.(*lua.LTable)
		if !ok {
			bad = fmt.Errorf("condition is a %s, want a table", v.Type())
			return
		}
		if ks, ok := k.(lua.LString); ok {
			keyed = append(keyed, toCondition(string(ks), ct))
			return
		}
		name := getString(ct, "name")
		if name == "" {
			bad = fmt.Errorf("condition without a name")
			return
		}
		listed = append(listed, toCondition(name, ct))
	})
	if bad != nil {
		return nil, bad
	}
	sort.Slice(keyed, func(i, j int) bool { return keyed[i].Name < keyed[j].Name })
	return append(append([]types.Condition{}, listed...), keyed...), nil
}

func toCondition(name string, tbl *lua.LTable) types.Condition {
	remaining := -1
	if _, ok := tbl.RawGetString("remaining").(lua.LNumber); ok {
		remaining = getInt(tbl, "remaining")
	}
	return types.Condition{Name: name, Remaining: remaining, Damage: getInt(tbl, "damage")}
}
