package models

import (
	"fmt"
	"strings"
)

// Resource names used in parse errors and logs.
const (
	ResourceStatus  = "status"
	ResourceConfig  = "config"
	ResourceHistory = "history"
)

// ParseError reports a response body that does not match the expected shape
// or breaks one of the model invariants.
type ParseError struct {
	Resource string
	Field    string // empty when the whole body is malformed
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Resource)
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// FieldViolation is one problem found in a draft configuration.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v FieldViolation) String() string { return v.Field + ": " + v.Message }

// ValidationError blocks a submission before any request is issued.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("invalid configuration (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}
