package memory

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
)

// compare orders a stored value against a filter value. Numbers and
// numeric strings compare as numbers, times as times, everything else as
// text. ok is false when either side is nil or the values cannot be
// related.
func compare(a, b any) (cmp int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if ta, isTime := a.(time.Time); isTime {
		tb, err := cast.ToTimeE(b)
		if err != nil {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if tb, isTime := b.(time.Time); isTime {
		ta, err := cast.ToTimeE(a)
		if err != nil {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if _, isBool := a.(bool); isBool {
		return compareBool(a, b)
	}
	if _, isBool := b.(bool); isBool {
		return compareBool(a, b)
	}

	if f.IsNumeric(a) && f.IsNumeric(b) {
		fa, errA := cast.ToFloat64E(trim(a))
		fb, errB := cast.ToFloat64E(trim(b))
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
	}

	sa, errA := cast.ToStringE(a)
	sb, errB := cast.ToStringE(b)
	if errA != nil || errB != nil {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func compareBool(a, b any) (int, bool) {
	ba, errA := cast.ToBoolE(a)
	bb, errB := cast.ToBoolE(b)
	switch {
	case errA != nil || errB != nil:
		return 0, false
	case ba == bb:
		return 0, true
	case bb:
		return -1, true
	}
	return 1, true
}

// compareForSort places nil and incomparable values last.
func compareForSort(a, b any) int {
	if cmp, ok := compare(a, b); ok {
		return cmp
	}
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return 0
}

func trim(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}
