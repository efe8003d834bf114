package segment

import (
	"testing"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMatchCondition(t *testing.T) {
	tests := []struct {
		op     domain.SegmentOperator
		value  string
		actual string
		want   bool
	}{
		{domain.OpIs, "John", "john", true},
		{domain.OpIs, domain.EmptyValue, "", true},
		{domain.OpIs, domain.EmptyValue, "x", false},
		{domain.OpIsNot, domain.EmptyValue, "x", true},
		{domain.OpContains, "gmail", "a@GMAIL.com", true},
		{domain.OpContains, domain.EmptyValue, "", true},
		{domain.OpNotContains, "gmail", "a@yahoo.com", true},
		{domain.OpNotContains, domain.EmptyValue, "", false},
		{domain.OpStartsWith, "jo", "John", true},
		{domain.OpEndsWith, ".com", "a@b.com", true},
		{domain.OpNotStartsWith, "jo", "Mary", true},
		{domain.OpNotEndsWith, ".com", "a@b.org", true},
		{domain.OpGreater, "9", "10", true},
		{domain.OpLess, "9", "10", false},
		{domain.OpGreater, "b", "c", true},
		{"unknown", "x", "x", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.op)+"/"+tt.value+"/"+tt.actual, func(t *testing.T) {
			c := domain.SegmentCondition{Operator: tt.op, Value: tt.value}
			assert.Equal(t, tt.want, matchCondition(c, tt.actual))
		})
	}
}

func TestMatches_AnyAll(t *testing.T) {
	values := map[string]string{"FNAME": "John", "COUNTRY": "US"}
	valueOf := func(tag string) string { return values[tag] }
	conds := []domain.SegmentCondition{
		{FieldTag: "FNAME", Operator: domain.OpIs, Value: "john"},
		{FieldTag: "COUNTRY", Operator: domain.OpIs, Value: "UK"},
	}

	assert.True(t, Matches(&domain.Segment{OperatorMatch: domain.MatchAny, Conditions: conds}, valueOf))
	assert.False(t, Matches(&domain.Segment{OperatorMatch: domain.MatchAll, Conditions: conds}, valueOf))
	assert.True(t, Matches(&domain.Segment{OperatorMatch: domain.MatchAll, Conditions: conds[:1]}, valueOf))
	assert.False(t, Matches(&domain.Segment{OperatorMatch: domain.MatchAll}, valueOf))
}
