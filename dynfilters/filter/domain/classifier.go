package filter

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

// ResolvedFilter is a filter with its effective operator, value and connector.
type ResolvedFilter struct {
	Field    string
	Operator operators.Operator
	Value    any
	Boolean  operators.Boolean
}

type ClassifierOption func(*Classifier)

// StrictClassifier disables type inference: only Explicit expressions are
// classified, everything else is rejected.
func StrictClassifier() ClassifierOption {
	return func(c *Classifier) {
		c.strict = true
	}
}

// Classifier infers operator and connector from the shape of a raw value.
//
// The inference ignores column types: a numeric-looking string such as "42"
// is compared with "=" even if the column is text. Clients that need another
// operator send an Explicit {operator, value} object; StrictClassifier
// makes that mandatory.
type Classifier struct {
	strict bool
}

func NewClassifier(opts ...ClassifierOption) Classifier {
	c := Classifier{}
	for i := range opts {
		opts[i](&c)
	}
	return c
}

// Classify returns false only in strict mode for a non-Explicit expression.
func (c Classifier) Classify(field string, expr FilterExpr) (ResolvedFilter, bool) {
	rf := ResolvedFilter{Field: field, Boolean: operators.BooleanAnd}

	switch e := expr.(type) {
	case Explicit:
		rf.Operator = operators.Normalize(e.Operator)
		rf.Value = e.Value
		rf.Boolean = operators.ParseBoolean(e.Boolean)
		return rf, true
	case List:
		rf.Operator = operators.OperatorIn
		rf.Value = e.Values
	case Scalar:
		rf.Value = e.Value
		if IsNumeric(e.Value) {
			rf.Operator = operators.OperatorEq
		} else {
			rf.Operator = operators.OperatorLike
		}
	case nil:
		rf.Operator = operators.OperatorLike
	}

	if c.strict {
		return rf, false
	}
	return rf, true
}

var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// IsNumeric reports whether v is a number or a decimal string ("12",
// " 3.5", "1e3"). Booleans, hex literals, NaN and Inf are not numeric.
func IsNumeric(v any) bool {
	switch n := v.(type) {
	case nil, bool:
		return false
	case string:
		return numericPattern.MatchString(strings.TrimSpace(n))
	case json.Number:
		return numericPattern.MatchString(n.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return false
}

// IsEmptyValue reports nil and whitespace-only strings. Zero, false and
// empty lists are values.
func IsEmptyValue(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	}
	return false
}
