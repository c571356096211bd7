package filter

import "strings"

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

const descPrefix = "-"

type SortItem struct {
	Path      FieldPath
	Direction Direction
}

type SortSpec []SortItem

// SortCompiler parses sort strings such as "-name,created_at,profile.city".
type SortCompiler struct {
	resolver RelationResolver
}

func NewSortCompiler(resolver RelationResolver) SortCompiler {
	return SortCompiler{resolver: resolver}
}

// Compile never fails: empty or disallowed segments are skipped. The
// allow-list is matched against the field name as written, before relation
// resolution.
func (c SortCompiler) Compile(sortString string, allowList []string) SortSpec {
	spec, _ := c.compile(sortString, allowList)
	return spec
}

func (c SortCompiler) compile(sortString string, allowList []string) (SortSpec, []Dropped) {
	allowed := make(map[string]struct{}, len(allowList))
	for _, f := range allowList {
		allowed[f] = struct{}{}
	}

	var spec SortSpec
	var dropped []Dropped
	for _, segment := range strings.Split(sortString, ",") {
		field := strings.TrimSpace(segment)
		direction := Asc
		if strings.HasPrefix(field, descPrefix) {
			direction = Desc
			field = strings.TrimLeft(field, descPrefix)
		}
		if field == "" {
			if trimmed := strings.TrimSpace(segment); trimmed != "" {
				dropped = append(dropped, Dropped{Field: trimmed, Reason: DropMalformedSort})
			}
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[field]; !ok {
				dropped = append(dropped, Dropped{Field: field, Reason: DropSortFieldNotAllowed})
				continue
			}
		}
		spec = append(spec, SortItem{Path: c.resolver.Resolve(field), Direction: direction})
	}
	return spec, dropped
}
