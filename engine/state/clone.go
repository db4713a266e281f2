package state

import "github.com/nathoo/fablecore/types"

// Clone returns a deep copy of an entity. Property values that are maps or
// slices (as produced by Lua and JSON) are copied recursively.
func Clone(e *types.Entity) types.Entity {
	c := *e
	c.Props = cloneMap(e.Props)
	c.Behaviors = append([]string(nil), e.Behaviors...)
	if e.Location != nil {
		l := *e.Location
		c.Location = &l
	}
	if e.Item != nil {
		i := *e.Item
		c.Item = &i
	}
	if e.Actor != nil {
		a := *e.Actor
		a.Conditions = append([]types.Condition(nil), e.Actor.Conditions...)
		c.Actor = &a
	}
	if e.Lock != nil {
		l := *e.Lock
		l.Keys = append([]string(nil), e.Lock.Keys...)
		c.Lock = &l
	}
	if e.Exit != nil {
		x := *e.Exit
		c.Exit = &x
	}
	return c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = cloneValue(x)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
