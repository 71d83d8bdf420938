package schema

// ApplyDefaults returns a copy of value in which every object property that
// is missing but declares a `default` in schema is filled in. It descends
// into `properties` and `items`; value itself is never mutated.
func ApplyDefaults(schema, value any) any {
	sch, ok := schema.(map[string]any)
	if !ok {
		return value
	}

	switch v := value.(type) {
	case map[string]any:
		props, _ := sch["properties"].(map[string]any)
		out := make(map[string]any, len(v)+len(props))
		for k, x := range v {
			out[k] = x
		}
		for name, p := range props {
			ps, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if cur, present := out[name]; present {
				out[name] = ApplyDefaults(ps, cur)
				continue
			}
			if def, has := ps["default"]; has {
				out[name] = ApplyDefaults(ps, clone(def))
			}
		}
		return out
	case []any:
		items, ok := sch["items"].(map[string]any)
		if !ok {
			return v
		}
		out := make([]any, len(v))
		for i := range v {
			out[i] = ApplyDefaults(items, v[i])
		}
		return out
	}
	return value
}

func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = clone(e)
		}
		return out
	}
	return v
}
