package filter

import (
	"strings"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/option"
)

// DropReason says why a filter or sort segment produced nothing.
type DropReason string

const (
	DropNone                DropReason = ""
	DropInvalidOperator     DropReason = "invalid_operator"
	DropEmptyValue          DropReason = "empty_value"
	DropBadArity            DropReason = "bad_arity"
	DropNotExplicit         DropReason = "not_explicit"
	DropMalformedField      DropReason = "malformed_field"
	DropSortFieldNotAllowed DropReason = "sort_field_not_allowed"
	DropMalformedSort       DropReason = "malformed_sort"
)

type Dropped struct {
	Field  string
	Reason DropReason
}

type PredicateBuilder struct {
	registry *operators.OperatorRegistry
	resolver RelationResolver
}

func NewPredicateBuilder(registry *operators.OperatorRegistry, resolver RelationResolver) PredicateBuilder {
	return PredicateBuilder{registry: registry, resolver: resolver}
}

// Build returns the root AND group: the search clause first, when present,
// then one node per surviving filter in input order.
func (b PredicateBuilder) Build(
	filters []ResolvedFilter,
	search option.Option[string],
	searchable []FieldPath,
) (GroupNode, []Dropped) {
	var children []Visitable
	var dropped []Dropped

	if search.IsSome() {
		if clause, ok := b.BuildSearch(search.Unwrap(), searchable); ok {
			children = append(children, clause)
		}
	}

	for _, f := range filters {
		node, reason := b.BuildFilter(f)
		if reason != DropNone {
			dropped = append(dropped, Dropped{Field: f.Field, Reason: reason})
			continue
		}
		children = append(children, node)
	}
	return Group(operators.BooleanAnd, children...), dropped
}

// BuildFilter returns the node for one filter, or the reason it was skipped.
func (b PredicateBuilder) BuildFilter(f ResolvedFilter) (Visitable, DropReason) {
	if strings.TrimSpace(f.Field) == "" {
		return nil, DropMalformedField
	}
	if IsEmptyValue(f.Value) {
		return nil, DropEmptyValue
	}
	if !b.registry.IsAllowed(string(f.Operator)) {
		return nil, DropInvalidOperator
	}

	op := operators.Normalize(string(f.Operator))
	value, ok := shapeValue(op, f.Value)
	if !ok {
		return nil, DropBadArity
	}

	path := b.resolver.Resolve(f.Field)
	switch path.Kind {
	case RelationKey, RelationField:
		return RelationScope(path.Relation, Leaf(path.Column, op, value, f.Boolean)), DropNone
	default:
		return Leaf(f.Field, op, value, f.Boolean), DropNone
	}
}

// BuildSearch ORs a like predicate over every searchable field. A blank
// term yields no clause.
func (b PredicateBuilder) BuildSearch(term string, searchable []FieldPath) (GroupNode, bool) {
	if strings.TrimSpace(term) == "" || len(searchable) == 0 {
		return GroupNode{}, false
	}
	pattern := likePattern(term)
	children := make([]Visitable, 0, len(searchable))
	for _, p := range searchable {
		if p.IsRelation() {
			children = append(children, RelationScope(
				p.Relation,
				Leaf(p.Column, operators.OperatorLike, pattern, operators.BooleanAnd),
			))
		} else {
			children = append(children, Leaf(p.Column, operators.OperatorLike, pattern, operators.BooleanOr))
		}
	}
	return Group(operators.BooleanOr, children...), true
}

// shapeValue applies the per-operator value rules; false means bad arity.
func shapeValue(op operators.Operator, value any) (any, bool) {
	switch op {
	case operators.OperatorLike:
		return likePattern(toString(value)), true
	case operators.OperatorIn:
		if list, ok := ParseExpr(value).(List); ok {
			return list.Values, true
		}
		return []any{value}, true
	case operators.OperatorBetween:
		list, ok := ParseExpr(value).(List)
		if !ok || len(list.Values) != 2 {
			return nil, false
		}
		return Range{Low: list.Values[0], High: list.Values[1]}, true
	default:
		return value, true
	}
}

func likePattern(term string) string {
	return "%" + term + "%"
}
