package operators

import "strings"

type Operator string

const (
	// Comparison

	OperatorEq  Operator = "="
	OperatorGt  Operator = ">"
	OperatorLt  Operator = "<"
	OperatorGte Operator = ">="
	OperatorLte Operator = "<="

	// Pattern and set

	OperatorLike    Operator = "like"
	OperatorIn      Operator = "in"
	OperatorBetween Operator = "between"
)

// Normalize lower-cases a raw operator taken from the request.
func Normalize(raw string) Operator {
	return Operator(strings.ToLower(raw))
}

// Boolean connects a predicate to the one before it.
type Boolean string

const (
	BooleanAnd Boolean = "and"
	BooleanOr  Boolean = "or"
)

// ParseBoolean lower-cases raw; an empty connector means "and".
func ParseBoolean(raw string) Boolean {
	if raw == "" {
		return BooleanAnd
	}
	return Boolean(strings.ToLower(raw))
}

// SQL returns the keyword used when rendering the connector.
func (b Boolean) SQL() string {
	if b == BooleanOr {
		return "OR"
	}
	return "AND"
}
