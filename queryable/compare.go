package queryable

import "strings"

// CompareValues compares two values and returns:
//
//	-1 if left < right
//	 0 if left == right
//	 1 if left > right
//
// Null orders before any non-null value. Ints and floats compare numerically
// against each other; other kind mismatches order by kind.
func CompareValues(left, right Value) int {
	if left.Null && right.Null {
		return 0
	}
	if left.Null {
		return -1
	}
	if right.Null {
		return 1
	}

	if left.IsNumeric() && right.IsNumeric() {
		return compareFloats(left.AsFloat(), right.AsFloat())
	}

	if left.Kind != right.Kind {
		// Kind mismatch: order by kind so sorting stays total.
		if left.Kind < right.Kind {
			return -1
		}
		return 1
	}

	switch left.Kind {
	case KindString:
		return strings.Compare(left.Str, right.Str)
	case KindBool:
		if !left.Bool && right.Bool {
			return -1
		} else if left.Bool && !right.Bool {
			return 1
		}
		return 0
	case KindTime:
		if left.Time.Before(right.Time) {
			return -1
		} else if left.Time.After(right.Time) {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// ValuesEqual checks if two values are equal, consistent with CompareValues.
func ValuesEqual(a, b Value) bool {
	return CompareValues(a, b) == 0
}

func compareFloats(a, b float64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
