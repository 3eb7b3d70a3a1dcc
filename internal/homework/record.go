// Package homework models the homework status API payload and validates it
// before any entry is trusted downstream.
package homework

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Payload keys of the status API.
const (
	FieldHomeworks   = "homeworks"
	FieldCurrentDate = "current_date"
	FieldName        = "homework_name"
	FieldStatus      = "status"
)

// StatusRecord is one parsed API response.
//
// Fields are kept raw so that a missing key can be told apart from a key of
// the wrong type during validation.
type StatusRecord struct {
	fields map[string]json.RawMessage
}

// ItemStatus is a single homework entry. Name and Status are nil when the key
// is absent from the payload.
type ItemStatus struct {
	Name   *string `json:"homework_name"`
	Status *string `json:"status"`
}

// NewItem is a convenience constructor for a fully populated entry.
func NewItem(name, status string) ItemStatus {
	return ItemStatus{Name: &name, Status: &status}
}

// ParseStatusRecord decodes a response body. Anything other than a JSON object
// yields a *MalformedResponseError.
func ParseStatusRecord(body []byte) (*StatusRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &MalformedResponseError{Err: errors.Wrap(err, "decode status response"), Excerpt: Excerpt(body)}
	}
	if fields == nil {
		return nil, &MalformedResponseError{Err: errors.New("status response is null"), Excerpt: Excerpt(body)}
	}
	return &StatusRecord{fields: fields}, nil
}

// Has reports whether key is present in the record.
func (r *StatusRecord) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.fields[key]
	return ok
}

// CurrentDate returns the server-reported timestamp. ok is false when the key
// is absent or is not an integer.
func (r *StatusRecord) CurrentDate() (ts int64, ok bool) {
	if r == nil {
		return 0, false
	}
	raw, present := r.fields[FieldCurrentDate]
	if !present {
		return 0, false
	}
	ts, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// Excerpt shortens a response body for logs. The cut never splits a UTF-8
// sequence.
func Excerpt(b []byte) string {
	const maxLen = 200
	b = bytes.TrimSpace(b)
	if len(b) <= maxLen {
		return string(b)
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "..."
}
