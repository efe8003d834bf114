package domain

import (
	"sort"
	"strings"
)

// ValidationError collects per-attribute messages produced while validating
// a record. Handlers render it as a 422 with the field map.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

// Add records a message against an attribute.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// HasErrors reports whether any message was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// Err returns e when it holds messages and nil otherwise, so callers can
// write `return v.Err()` at the end of a validation pass.
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the first message of the first failing attribute, in
// attribute name order.
func (e *ValidationError) First() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(e.Fields[k]) > 0 {
			return e.Fields[k][0]
		}
	}
	return ""
}

// CSVDate is the timestamp layout used in exported files.
const CSVDate = "2006-01-02 15:04:05"

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
