package segment

import (
	"strconv"
	"strings"

	"github.com/ignite/customer-console/internal/domain"
)

// Matches reports whether the values returned by valueOf satisfy seg.
// A segment without conditions matches nothing.
func Matches(seg *domain.Segment, valueOf func(tag string) string) bool {
	if len(seg.Conditions) == 0 {
		return false
	}
	for _, c := range seg.Conditions {
		ok := matchCondition(c, valueOf(c.FieldTag))
		if seg.OperatorMatch == domain.MatchAny && ok {
			return true
		}
		if seg.OperatorMatch != domain.MatchAny && !ok {
			return false
		}
	}
	return seg.OperatorMatch != domain.MatchAny
}

// matchCondition compares case-insensitively. [EMPTY] stands for the empty
// string; greater and less compare numerically when both sides are numbers.
func matchCondition(c domain.SegmentCondition, actual string) bool {
	want := c.Value
	if want == domain.EmptyValue {
		want = ""
	}
	a := strings.ToLower(strings.TrimSpace(actual))
	w := strings.ToLower(strings.TrimSpace(want))

	switch c.Operator {
	case domain.OpIs:
		return a == w
	case domain.OpIsNot:
		return a != w
	case domain.OpContains:
		if w == "" {
			return a == ""
		}
		return strings.Contains(a, w)
	case domain.OpNotContains:
		if w == "" {
			return a != ""
		}
		return !strings.Contains(a, w)
	case domain.OpStartsWith:
		return strings.HasPrefix(a, w)
	case domain.OpEndsWith:
		return strings.HasSuffix(a, w)
	case domain.OpNotStartsWith:
		return !strings.HasPrefix(a, w)
	case domain.OpNotEndsWith:
		return !strings.HasSuffix(a, w)
	case domain.OpGreater:
		return compare(a, w) > 0
	case domain.OpLess:
		return compare(a, w) < 0
	}
	return false
}

func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa > fb:
			return 1
		case fa < fb:
			return -1
		}
		return 0
	}
	return strings.Compare(a, b)
}
