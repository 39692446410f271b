// Package normalize resolves the canonical report model from arbitrarily
// shaped assessment input.
//
// Each logical field is described by an ordered list of typed accessors.
// The first accessor whose value is usable wins; a value is unusable when
// it is missing, null, empty, or one of the sentinels "Unknown" and "N/A".
// When no accessor yields a usable value the field's documented fallback
// is returned. Resolution never fails and never panics; every fallback and
// every type mismatch is recorded as a Diagnostic instead.
package normalize

import (
	"strconv"
	"strings"

	"github.com/vareport/vareport/pkg/defaults"
)

// Accessor resolves one candidate location of a logical field.
type Accessor struct {
	// Label names the location in diagnostics, e.g. "target.systemData.ip".
	Label string

	// Get returns the value at the location and whether it exists and is
	// non-null.
	Get func(root any) (any, bool)
}

// Path returns an accessor walking nested objects by key.
func Path(keys ...string) Accessor {
	return Accessor{
		Label: strings.Join(keys, "."),
		Get: func(root any) (any, bool) {
			cur := root
			for _, k := range keys {
				obj, ok := cur.(map[string]any)
				if !ok {
					return nil, false
				}
				if cur, ok = obj[k]; !ok {
					return nil, false
				}
			}
			return cur, cur != nil
		},
	}
}

// Within applies inner to the value found by base.
func Within(base, inner Accessor) Accessor {
	return Accessor{
		Label: base.Label + "." + inner.Label,
		Get: func(root any) (any, bool) {
			v, ok := base.Get(root)
			if !ok {
				return nil, false
			}
			return inner.Get(v)
		},
	}
}

// Resolve returns the first usable value among sources.
func Resolve(root any, sources ...Accessor) (any, bool) {
	for _, src := range sources {
		if v, ok := src.Get(root); ok && usable(v) {
			return v, true
		}
	}
	return nil, false
}

// Text resolves sources to a display string, or returns fallback. Values
// that are not scalars are skipped.
func Text(root any, fallback string, sources ...Accessor) string {
	for _, src := range sources {
		v, ok := src.Get(root)
		if !ok {
			continue
		}
		if s, ok := scalarText(v); ok && usable(s) {
			return s
		}
	}
	return fallback
}

func usable(v any) bool {
	s, ok := v.(string)
	if !ok {
		return v != nil
	}
	if strings.TrimSpace(s) == "" {
		return false
	}
	return s != defaults.Unknown && s != defaults.NotAvailable
}

// scalarText renders strings, numbers and booleans. Numbers use the
// shortest representation, so 8 renders as "8" and 7.5 as "7.5".
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// number converts numeric values and numeric strings.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return "value"
}
