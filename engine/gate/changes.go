package gate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// Field prefixes for keyed fields.
const (
	PropPrefix      = "prop:"
	ConditionPrefix = "condition:"
)

// Set replaces a field.
func Set(field string, value any) types.Change {
	return types.Change{Field: field, Op: types.OpSet, Value: value}
}

// Add adds a delta to a numeric field or appends to a list field.
func Add(field string, value any) types.Change {
	return types.Change{Field: field, Op: types.OpAdd, Value: value}
}

// Unset clears a field. For list fields a non-nil value removes one element.
func Unset(field string, value any) types.Change {
	return types.Change{Field: field, Op: types.OpUnset, Value: value}
}

// SetProp sets a free-form property.
func SetProp(key string, value any) types.Change {
	return Set(PropPrefix+key, value)
}

// AddCondition applies or replaces a named condition on an actor.
func AddCondition(c types.Condition) types.Change {
	return Set(ConditionPrefix+c.Name, c)
}

// RemoveCondition removes a named condition from an actor.
func RemoveCondition(name string) types.Change {
	return Unset(ConditionPrefix+name, nil)
}

// ChangeError reports a change the gate cannot apply to an entity.
type ChangeError struct {
	EntityID string
	Field    string
	Op       types.ChangeOp
	Reason   string
}

func (e *ChangeError) Error() string {
	return fmt.Sprintf("change %s %q on %q: %s", opName(e.Op), e.Field, e.EntityID, e.Reason)
}

func opName(op types.ChangeOp) string {
	switch op {
	case types.OpSet:
		return "set"
	case types.OpAdd:
		return "add"
	case types.OpUnset:
		return "unset"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// applyChange writes one change into e, which must be a private clone.
func applyChange(w *state.World, e *types.Entity, c types.Change) error {
	fail := func(format string, args ...any) error {
		return &ChangeError{EntityID: e.ID, Field: c.Field, Op: c.Op, Reason: fmt.Sprintf(format, args...)}
	}

	if key, ok := strings.CutPrefix(c.Field, PropPrefix); ok {
		if key == "" {
			return fail("empty property key")
		}
		return applyProp(e, key, c, fail)
	}

	switch c.Field {
	case "name":
		return setString(&e.Name, c, fail)
	case "description":
		return setString(&e.Description, c, fail)
	}

	switch e.Kind {
	case types.KindItem:
		return applyItem(w, e, c, fail)
	case types.KindActor:
		return applyActor(w, e, c, fail)
	case types.KindLock:
		return applyLock(w, e, c, fail)
	case types.KindExit:
		return applyExit(w, e, c, fail)
	}
	return fail("no such field on a %s", e.Kind)
}

type failFunc func(format string, args ...any) error

func setString(dst *string, c types.Change, fail failFunc) error {
	switch c.Op {
	case types.OpSet:
		s, ok := c.Value.(string)
		if !ok {
			return fail("want string, got %T", c.Value)
		}
		*dst = s
	case types.OpUnset:
		*dst = ""
	default:
		return fail("unsupported operation")
	}
	return nil
}

func setBool(dst *bool, c types.Change, fail failFunc) error {
	switch c.Op {
	case types.OpSet:
		b, ok := c.Value.(bool)
		if !ok {
			return fail("want bool, got %T", c.Value)
		}
		*dst = b
	case types.OpUnset:
		*dst = false
	default:
		return fail("unsupported operation")
	}
	return nil
}

func applyProp(e *types.Entity, key string, c types.Change, fail failFunc) error {
	switch c.Op {
	case types.OpSet:
		e.Props[key] = c.Value
	case types.OpUnset:
		delete(e.Props, key)
	case types.OpAdd:
		delta, ok := state.ToInt(c.Value)
		if !ok {
			return fail("want number, got %T", c.Value)
		}
		cur := 0
		if v, ok := e.Props[key]; ok {
			if cur, ok = state.ToInt(v); !ok {
				return fail("property holds %T, not a number", v)
			}
		}
		e.Props[key] = cur + delta
	default:
		return fail("unsupported operation")
	}
	return nil
}

func applyItem(w *state.World, e *types.Entity, c types.Change, fail failFunc) error {
	switch c.Field {
	case "container":
		if c.Op != types.OpSet {
			return fail("container can only be set")
		}
		id, ok := c.Value.(string)
		if !ok {
			return fail("want entity id, got %T", c.Value)
		}
		if err := w.CheckContainer(e.ID, id); err != nil {
			return fail("%v", err)
		}
		e.Item.Container = id
		return nil
	case "portable":
		return setBool(&e.Item.Portable, c, fail)
	}
	return fail("no such field on an item")
}

func applyActor(w *state.World, e *types.Entity, c types.Change, fail failFunc) error {
	a := e.Actor
	if name, ok := strings.CutPrefix(c.Field, ConditionPrefix); ok {
		return applyCondition(a, name, c, fail)
	}

	switch c.Field {
	case "location":
		if c.Op != types.OpSet {
			return fail("location can only be set")
		}
		id, ok := c.Value.(string)
		if !ok {
			return fail("want location id, got %T", c.Value)
		}
		if err := w.CheckLocation(e.ID, id); err != nil {
			return fail("%v", err)
		}
		a.Location = id
		return nil

	case "health", "max_health":
		dst := &a.Health
		if c.Field == "max_health" {
			dst = &a.MaxHealth
		}
		n, ok := state.ToInt(c.Value)
		if !ok {
			return fail("want number, got %T", c.Value)
		}
		switch c.Op {
		case types.OpSet:
			*dst = n
		case types.OpAdd:
			*dst += n
		default:
			return fail("unsupported operation")
		}
		if a.MaxHealth < 0 {
			a.MaxHealth = 0
		}
		clampHealth(a)
		return nil

	case "conditions":
		switch c.Op {
		case types.OpSet:
			conds, ok := c.Value.([]types.Condition)
			if !ok {
				return fail("want []Condition, got %T", c.Value)
			}
			a.Conditions = append([]types.Condition(nil), conds...)
		case types.OpUnset:
			a.Conditions = nil
		default:
			return fail("unsupported operation")
		}
		return nil
	}
	return fail("no such field on an actor")
}

// clampHealth keeps health within [0, max_health]. A zero max_health means
// the actor has no ceiling.
func clampHealth(a *types.ActorData) {
	if a.Health < 0 {
		a.Health = 0
	}
	if a.MaxHealth > 0 && a.Health > a.MaxHealth {
		a.Health = a.MaxHealth
	}
}

func applyCondition(a *types.ActorData, name string, c types.Change, fail failFunc) error {
	if name == "" {
		return fail("empty condition name")
	}
	i := slices.IndexFunc(a.Conditions, func(x types.Condition) bool { return x.Name == name })
	switch c.Op {
	case types.OpSet:
		cond, ok := c.Value.(types.Condition)
		if !ok {
			return fail("want Condition, got %T", c.Value)
		}
		cond.Name = name
		if i >= 0 {
			a.Conditions[i] = cond
		} else {
			a.Conditions = append(a.Conditions, cond)
		}
	case types.OpUnset:
		if i >= 0 {
			a.Conditions = slices.Delete(a.Conditions, i, i+1)
		}
	case types.OpAdd:
		// Extends the remaining duration of an existing timed condition.
		n, ok := state.ToInt(c.Value)
		if !ok {
			return fail("want number, got %T", c.Value)
		}
		if i < 0 {
			return fail("actor has no condition %q", name)
		}
		if a.Conditions[i].Remaining >= 0 {
			a.Conditions[i].Remaining += n
		}
	default:
		return fail("unsupported operation")
	}
	return nil
}

func applyLock(w *state.World, e *types.Entity, c types.Change, fail failFunc) error {
	l := e.Lock
	switch c.Field {
	case "locked":
		return setBool(&l.Locked, c, fail)
	case "keys":
		switch c.Op {
		case types.OpSet:
			keys, ok := c.Value.([]string)
			if !ok {
				return fail("want []string, got %T", c.Value)
			}
			for _, k := range keys {
				if err := w.CheckRef(e.ID, "key", k, types.KindItem); err != nil {
					return fail("%v", err)
				}
			}
			l.Keys = append([]string(nil), keys...)
		case types.OpAdd:
			k, ok := c.Value.(string)
			if !ok {
				return fail("want item id, got %T", c.Value)
			}
			if err := w.CheckRef(e.ID, "key", k, types.KindItem); err != nil {
				return fail("%v", err)
			}
			if !slices.Contains(l.Keys, k) {
				l.Keys = append(l.Keys, k)
			}
		case types.OpUnset:
			if c.Value == nil {
				l.Keys = nil
				return nil
			}
			k, ok := c.Value.(string)
			if !ok {
				return fail("want item id, got %T", c.Value)
			}
			l.Keys = slices.DeleteFunc(l.Keys, func(x string) bool { return x == k })
		default:
			return fail("unsupported operation")
		}
		return nil
	}
	return fail("no such field on a lock")
}

func applyExit(w *state.World, e *types.Entity, c types.Change, fail failFunc) error {
	x := e.Exit
	switch c.Field {
	case "destination":
		if c.Op != types.OpSet {
			return fail("destination can only be set")
		}
		id, ok := c.Value.(string)
		if !ok {
			return fail("want location id, got %T", c.Value)
		}
		if err := w.CheckLocation(e.ID, id); err != nil {
			return fail("%v", err)
		}
		x.Destination = id
		return nil
	case "lock":
		switch c.Op {
		case types.OpSet:
			id, ok := c.Value.(string)
			if !ok {
				return fail("want lock id, got %T", c.Value)
			}
			if err := w.CheckRef(e.ID, "lock", id, types.KindLock); err != nil {
				return fail("%v", err)
			}
			x.Lock = id
		case types.OpUnset:
			x.Lock = ""
		default:
			return fail("unsupported operation")
		}
		return nil
	}
	return fail("no such field on an exit")
}
