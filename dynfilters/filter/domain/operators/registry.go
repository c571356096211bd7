package operators

import "sort"

const DefaultRelationKey = "id"

// DefaultOperators mirrors the stock configuration of the package.
var DefaultOperators = []Operator{
	OperatorEq,
	OperatorLike,
	OperatorIn,
	OperatorBetween,
	OperatorGt,
	OperatorLt,
	OperatorGte,
	OperatorLte,
}

type RegistryOption func(*OperatorRegistry)

// WithAllowedOperators replaces the allowed operator set. Names outside
// DefaultOperators are ignored since no executor can render them.
func WithAllowedOperators(ops ...string) RegistryOption {
	return func(r *OperatorRegistry) {
		r.allowed = make(map[Operator]struct{}, len(ops))
		for _, op := range ops {
			if op := Normalize(op); IsKnown(op) {
				r.allowed[op] = struct{}{}
			}
		}
	}
}

// IsKnown reports whether op is one of DefaultOperators.
func IsKnown(op Operator) bool {
	for _, known := range DefaultOperators {
		if op == known {
			return true
		}
	}
	return false
}

// WithDefaultRelationKey sets the column used when a filter names a relation directly.
func WithDefaultRelationKey(key string) RegistryOption {
	return func(r *OperatorRegistry) {
		if key != "" {
			r.defaultRelationKey = key
		}
	}
}

// WithAllowedSortFields restricts sorting to the given field names.
func WithAllowedSortFields(fields ...string) RegistryOption {
	return func(r *OperatorRegistry) {
		r.sortable = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			r.sortable[f] = struct{}{}
		}
	}
}

// OperatorRegistry is the read-only filter configuration. It is built once
// at startup and shared by every request without locking.
type OperatorRegistry struct {
	allowed            map[Operator]struct{}
	defaultRelationKey string
	sortable           map[string]struct{}
}

func NewOperatorRegistry(opts ...RegistryOption) *OperatorRegistry {
	reg := &OperatorRegistry{
		allowed:            make(map[Operator]struct{}, len(DefaultOperators)),
		defaultRelationKey: DefaultRelationKey,
		sortable:           map[string]struct{}{},
	}
	for _, op := range DefaultOperators {
		reg.allowed[op] = struct{}{}
	}
	for i := range opts {
		opts[i](reg)
	}
	return reg
}

// IsAllowed reports whether op is enabled, ignoring case.
func (r *OperatorRegistry) IsAllowed(op string) bool {
	_, ok := r.allowed[Normalize(op)]
	return ok
}

// SortableAllowed reports whether field may be sorted on. An empty
// allow-list permits every field.
func (r *OperatorRegistry) SortableAllowed(field string) bool {
	if len(r.sortable) == 0 {
		return true
	}
	_, ok := r.sortable[field]
	return ok
}

func (r *OperatorRegistry) DefaultRelationKey() string {
	return r.defaultRelationKey
}

// AllowedSortFields returns the sort allow-list in lexical order.
func (r *OperatorRegistry) AllowedSortFields() []string {
	fields := make([]string, 0, len(r.sortable))
	for f := range r.sortable {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// AllowedOperators returns the enabled operators in lexical order.
func (r *OperatorRegistry) AllowedOperators() []Operator {
	ops := make([]Operator, 0, len(r.allowed))
	for op := range r.allowed {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
