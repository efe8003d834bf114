package domain

import (
	"strconv"
	"time"
)

// SegmentOperator compares a field value against a condition value.
type SegmentOperator string

const (
	OpIs            SegmentOperator = "is"
	OpIsNot         SegmentOperator = "is not"
	OpContains      SegmentOperator = "contains"
	OpNotContains   SegmentOperator = "not contains"
	OpStartsWith    SegmentOperator = "starts with"
	OpEndsWith      SegmentOperator = "ends with"
	OpNotStartsWith SegmentOperator = "not starts with"
	OpNotEndsWith   SegmentOperator = "not ends with"
	OpGreater       SegmentOperator = "greater"
	OpLess          SegmentOperator = "less"
)

// Operators lists every supported operator in display order.
var Operators = []SegmentOperator{OpIs, OpIsNot, OpContains, OpNotContains,
	OpStartsWith, OpEndsWith, OpNotStartsWith, OpNotEndsWith, OpGreater, OpLess}

// OperatorMatch decides whether all or any conditions must hold.
type OperatorMatch string

const (
	MatchAny OperatorMatch = "any"
	MatchAll OperatorMatch = "all"
)

// EmptyValue in a condition matches a blank field.
const EmptyValue = "[EMPTY]"

// SegmentCondition is one rule of a list or survey segment.
type SegmentCondition struct {
	ID       int64           `json:"-" db:"condition_id"`
	FieldID  int64           `json:"-" db:"field_id"`
	FieldTag string          `json:"field_tag" db:"tag" mapstructure:"field_tag"`
	Operator SegmentOperator `json:"operator" db:"operator" mapstructure:"operator"`
	Value    string          `json:"value" db:"value" mapstructure:"value"`
}

// Segment is a saved filter over a list's subscribers or a survey's
// responders. OwnerID is the list or survey key.
type Segment struct {
	ID            int64              `json:"-" db:"segment_id"`
	UID           string             `json:"segment_uid" db:"segment_uid"`
	OwnerID       int64              `json:"-" db:"owner_id"`
	Name          string             `json:"name" db:"name"`
	OperatorMatch OperatorMatch      `json:"operator_match" db:"operator_match"`
	Conditions    []SegmentCondition `json:"conditions" db:"-"`
	DateAdded     time.Time          `json:"date_added" db:"date_added"`
	LastUpdated   time.Time          `json:"last_updated" db:"last_updated"`
}

// Validate checks the segment shape. knownTags holds the tags conditions may
// reference; maxConditions of Unlimited disables the count check.
func (s *Segment) Validate(knownTags map[string]bool, maxConditions int) error {
	v := &ValidationError{}
	if s.Name == "" {
		v.Add("name", "Name cannot be blank.")
	} else if len(s.Name) > 255 {
		v.Add("name", "Name is too long (maximum is 255 characters).")
	}
	if s.OperatorMatch != MatchAny && s.OperatorMatch != MatchAll {
		v.Add("operator_match", "Operator match is invalid.")
	}
	if len(s.Conditions) == 0 {
		v.Add("conditions", "Please add at least one condition.")
	}
	if maxConditions != Unlimited && len(s.Conditions) > maxConditions {
		v.Add("conditions", "You are only allowed to add "+strconv.Itoa(maxConditions)+" conditions.")
	}
	for i, c := range s.Conditions {
		field := "conditions." + strconv.Itoa(i)
		if !knownTags[c.FieldTag] {
			v.Add(field, "Field is invalid.")
		}
		if !validOperator(c.Operator) {
			v.Add(field, "Operator is invalid.")
		}
		if c.Value == "" {
			v.Add(field, "Value cannot be blank.")
		}
	}
	return v.Err()
}

func validOperator(op SegmentOperator) bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}
