package filter

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
)

const (
	searchParam  = "search"
	sortParam    = "sort"
	columnsParam = "columns"
	filtersParam = "filters"
)

// RequestFromHTTP reads a FilterRequest from the query string and form body
// of r.
func RequestFromHTTP(r *http.Request) (f.FilterRequest, error) {
	if err := r.ParseForm(); err != nil {
		return f.FilterRequest{}, errors.Wrap(err, "unable to parse filter request")
	}
	return RequestFromValues(r.Form), nil
}

// RequestFromValues understands the bracket syntax of form encoding:
//
//	filters[status]=new
//	filters[status][]=new&filters[status][]=open
//	filters[age][operator]=between&filters[age][value][]=18&filters[age][value][]=65
//	filters[age][boolean]=or
//	columns[]=id&columns[]=name  or  columns=id,name
//
// Values stay strings. Keys are read in lexical order and a bracketed form
// wins over a plain one for the same field, so filters[age][operator]=>
// overrides filters[age]=30 whatever the order of the query string.
func RequestFromValues(values url.Values) f.FilterRequest {
	data := map[string]any{}
	filters := map[string]any{}
	var columns []any

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}
		name, path, ok := splitKey(key)
		if !ok {
			continue
		}
		switch name {
		case searchParam, sortParam:
			if len(path) == 0 {
				data[name] = vals[0]
			}
		case columnsParam:
			if len(path) == 0 && len(vals) == 1 {
				data[columnsParam] = vals[0]
				continue
			}
			for _, v := range vals {
				columns = append(columns, v)
			}
		case filtersParam:
			if len(path) == 0 || path[0] == "" {
				continue
			}
			insert(filters, path, vals)
		}
	}

	if len(columns) > 0 {
		data[columnsParam] = columns
	}
	if len(filters) > 0 {
		normalized := make(map[string]any, len(filters))
		for field, value := range filters {
			normalized[field] = normalize(value)
		}
		data[filtersParam] = normalized
	}
	return f.NewFilterRequest(data)
}

// splitKey turns "filters[age][value][]" into "filters" and
// ["age", "value", ""].
func splitKey(key string) (string, []string, bool) {
	name, rest, found := strings.Cut(key, "[")
	if !found {
		return key, nil, true
	}
	rest = "[" + rest
	var path []string
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, false
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return name, path, true
}

// insert never replaces a nested value with a flatter one: a map beats a
// list and a list beats a scalar.
func insert(node map[string]any, path []string, vals []string) {
	key, rest := path[0], path[1:]
	switch {
	case len(rest) == 0:
		switch node[key].(type) {
		case map[string]any, []any:
			return
		}
		if len(vals) == 1 {
			node[key] = vals[0]
			return
		}
		node[key] = strings2any(vals)
	case len(rest) == 1 && rest[0] == "":
		if _, ok := node[key].(map[string]any); ok {
			return
		}
		list, _ := node[key].([]any)
		node[key] = append(list, strings2any(vals)...)
	default:
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		insert(child, rest, vals)
	}
}

// normalize turns maps keyed by list indexes ("0", "1", ...) into lists.
func normalize(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	keys := make([]string, 0, len(m))
	indexes := make(map[string]int, len(m))
	for key := range m {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			keys = nil
			break
		}
		keys = append(keys, key)
		indexes[key] = i
	}
	if len(keys) > 0 {
		sort.Slice(keys, func(a, b int) bool { return indexes[keys[a]] < indexes[keys[b]] })
		list := make([]any, 0, len(keys))
		for _, key := range keys {
			list = append(list, normalize(m[key]))
		}
		return list
	}
	for key, v := range m {
		m[key] = normalize(v)
	}
	return m
}

func strings2any(vals []string) []any {
	result := make([]any, len(vals))
	for i := range vals {
		result[i] = vals[i]
	}
	return result
}
