package template

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var filtersOnce sync.Once

// registerDefaultFilters installs the helper set the micro-language exposes
// on top of pongo2's built-in operators (==, !=, <, >, and/or/not, in).
// Registration is process-wide, matching pongo2's global filter table.
func registerDefaultFilters() {
	filtersOnce.Do(func() {
		// Templates here produce values (URLs, booleans, dotted paths),
		// not HTML, so entity escaping would corrupt the output.
		pongo2.SetAutoescape(false)
		if !pongo2.FilterExists("empty") {
			_ = pongo2.RegisterFilter("empty", filterEmpty)
		}
		if !pongo2.FilterExists("contains") {
			_ = pongo2.RegisterFilter("contains", filterContains)
		}
		if !pongo2.FilterExists("json") {
			_ = pongo2.RegisterFilter("json", filterJSON)
		}
	})
}

// filterEmpty tests nil, empty string, empty array, and empty object alike.
func filterEmpty(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(isEmpty(in.Interface())), nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return strings.TrimSpace(rv.String()) == ""
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isEmpty(rv.Elem().Interface())
	default:
		return false
	}
}

// filterContains implements array-or-substring containment.
func filterContains(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if param == nil {
		return pongo2.AsValue(false), nil
	}
	haystack := in.Interface()
	needle := param.Interface()

	if s, ok := haystack.(string); ok {
		return pongo2.AsValue(strings.Contains(s, param.String())), nil
	}

	rv := reflect.ValueOf(haystack)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if reflect.DeepEqual(rv.Index(i).Interface(), needle) {
				return pongo2.AsValue(true), nil
			}
		}
	}
	return pongo2.AsValue(false), nil
}

// filterJSON serialises the input and never fails: nil renders as "null" or
// the caller-supplied fallback literal, and values that cannot be marshalled
// degrade to "[]" or "{}" depending on their shape.
func filterJSON(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	value := in.Interface()
	if value == nil {
		fallback := "null"
		if param != nil && param.String() != "" {
			fallback = param.String()
		}
		return pongo2.AsSafeValue(fallback), nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		switch reflect.ValueOf(value).Kind() {
		case reflect.Slice, reflect.Array:
			return pongo2.AsSafeValue("[]"), nil
		default:
			return pongo2.AsSafeValue("{}"), nil
		}
	}
	// Safe output: quotes in the serialization must survive autoescaping.
	return pongo2.AsSafeValue(string(raw)), nil
}
