package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// Timestamp layouts accepted on history records. The relay's SQLite column
// yields the second layout.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

var errNotObject = errors.New("expected a JSON object")

// fieldReader pulls typed fields out of a decoded JSON object. The first
// failure is kept and every later call becomes a no-op, so callers can read
// all fields and check err once.
type fieldReader struct {
	resource string
	prefix   string
	raw      map[string]json.RawMessage
	err      *ParseError
}

func newFieldReader(resource string, body []byte) (*fieldReader, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, &ParseError{Resource: resource, Reason: "malformed body", Err: errNotObject}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ParseError{Resource: resource, Reason: "malformed body", Err: err}
	}
	return &fieldReader{resource: resource, raw: raw}, nil
}

func (r *fieldReader) fail(field, reason string, err error) {
	if r.err == nil {
		r.err = &ParseError{Resource: r.resource, Field: r.prefix + field, Reason: reason, Err: err}
	}
}

// lookup returns the raw value, or nil when the field is absent or null.
func (r *fieldReader) lookup(field string) json.RawMessage {
	if r.err != nil {
		return nil
	}
	v, ok := r.raw[field]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil
	}
	return v
}

func (r *fieldReader) has(field string) bool {
	_, ok := r.raw[field]
	return ok
}

func (r *fieldReader) number(field string) (float64, bool) {
	v := r.lookup(field)
	if v == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		r.fail(field, "not numeric", err)
		return 0, false
	}
	return f, true
}

func (r *fieldReader) float(field string, dst *float64) {
	if f, ok := r.number(field); ok {
		*dst = f
	}
}

func (r *fieldReader) int64(field string, dst *int64) {
	f, ok := r.number(field)
	if !ok {
		return
	}
	if f != math.Trunc(f) {
		r.fail(field, "not an integer", nil)
		return
	}
	*dst = int64(f)
}

func (r *fieldReader) int(field string, dst *int) {
	v := int64(*dst)
	r.int64(field, &v)
	*dst = int(v)
}

// bool accepts JSON booleans and the 0/1 integers SQLite hands back.
func (r *fieldReader) bool(field string, dst *bool) {
	v := r.lookup(field)
	if v == nil {
		return
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		*dst = b
		return
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil && (f == 0 || f == 1) {
		*dst = f == 1
		return
	}
	r.fail(field, "not a boolean", nil)
}

func (r *fieldReader) string(field string, dst *string) {
	v := r.lookup(field)
	if v == nil {
		return
	}
	if err := json.Unmarshal(v, dst); err != nil {
		r.fail(field, "not a string", err)
	}
}

func (r *fieldReader) time(field string, dst *time.Time) {
	var s string
	r.string(field, &s)
	if r.err != nil || s == "" {
		return
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*dst = t.UTC()
			return
		}
	}
	r.fail(field, "unrecognised timestamp "+s, nil)
}

// objects decodes an array of JSON objects.
func (r *fieldReader) objects(field string) []json.RawMessage {
	v := r.lookup(field)
	if v == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		r.fail(field, "not an array", err)
		return nil
	}
	return items
}

func (r *fieldReader) result() error {
	if r.err != nil {
		return r.err
	}
	return nil
}
