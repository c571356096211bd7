package filter

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/option"
)

// FilterRequest is the untrusted input of one listing call.
type FilterRequest struct {
	Search  option.Option[string]
	Filters []FieldFilter
	Columns []string
	Sort    option.Option[string]
}

// FieldFilter keeps the request order of filters; a Go map would not.
type FieldFilter struct {
	Field string
	Expr  FilterExpr
}

// NewFilterRequest reads a plain mapping with the keys "search", "filters",
// "columns" and "sort". Filters given as a map are ordered by field name.
func NewFilterRequest(data map[string]any) FilterRequest {
	req := FilterRequest{
		Search: optionalString(data["search"]),
		Sort:   optionalString(data["sort"]),
	}
	req.Columns = stringList(data["columns"])

	switch filters := data["filters"].(type) {
	case []FieldFilter:
		req.Filters = append(req.Filters, filters...)
	case map[string]any:
		keys := make([]string, 0, len(filters))
		for k := range filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			req.Filters = append(req.Filters, FieldFilter{Field: k, Expr: ParseExpr(filters[k])})
		}
	}
	return req
}

// FilterExpr is the raw filter value: Scalar, List or Explicit.
type FilterExpr interface {
	isFilterExpr()
}

type Scalar struct {
	Value any
}

type List struct {
	Values []any
}

// Explicit carries its own operator; Boolean may be empty.
type Explicit struct {
	Operator string
	Value    any
	Boolean  string
}

func (Scalar) isFilterExpr()   {}
func (List) isFilterExpr()     {}
func (Explicit) isFilterExpr() {}

// ParseExpr tags a decoded request value. A mapping is Explicit only when both
// "operator" and "value" are present and non-nil; any other mapping or
// slice is a List.
func ParseExpr(raw any) FilterExpr {
	switch v := raw.(type) {
	case FilterExpr:
		return v
	case map[string]any:
		op, value := v["operator"], v["value"]
		if op != nil && value != nil {
			return Explicit{
				Operator: toString(op),
				Value:    value,
				Boolean:  toString(v["boolean"]),
			}
		}
		return List{Values: mapValues(reflect.ValueOf(v))}
	case []any:
		return List{Values: v}
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return Scalar{Value: raw}
		}
		return List{Values: sliceValues(rv)}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if e, ok := explicitFromMap(rv); ok {
				return e
			}
			return List{Values: mapValues(rv)}
		}
	}
	return Scalar{Value: raw}
}

// explicitFromMap handles typed mappings such as map[string]string.
func explicitFromMap(rv reflect.Value) (Explicit, bool) {
	get := func(key string) any {
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		if (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer ||
			v.Kind() == reflect.Map || v.Kind() == reflect.Slice) && v.IsNil() {
			return nil
		}
		return v.Interface()
	}
	op, value := get("operator"), get("value")
	if op == nil || value == nil {
		return Explicit{}, false
	}
	return Explicit{
		Operator: toString(op),
		Value:    value,
		Boolean:  toString(get("boolean")),
	}, true
}

func sliceValues(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func mapValues(rv reflect.Value) []any {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = rv.MapIndex(k).Interface()
	}
	return out
}

// optionalString treats nil and blank strings as absent.
func optionalString(v any) option.Option[string] {
	switch s := v.(type) {
	case nil:
		return option.Nothing[string]()
	case option.Option[string]:
		return s.Filter(notBlank)
	default:
		return option.Some(toString(s)).Filter(notBlank)
	}
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

func stringList(v any) []string {
	switch c := v.(type) {
	case nil:
		return nil
	case string:
		return splitList(c)
	case []string:
		return append([]string(nil), c...)
	case []any:
		out := make([]string, 0, len(c))
		for _, item := range c {
			if s := strings.TrimSpace(toString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
