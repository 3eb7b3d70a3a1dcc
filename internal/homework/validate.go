package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Validate checks that the record carries a list of homework entries and
// returns them in payload order. An empty list is valid.
//
// Only the first entry is tracked, so only the first entry has to be an
// object with string fields. Later entries are decoded best-effort: one that
// does not fit ItemStatus is returned with nil fields instead of failing the
// whole record.
//
// The record is not modified.
func Validate(rec *StatusRecord) ([]ItemStatus, error) {
	if rec == nil {
		return nil, &SchemaError{Field: FieldHomeworks, Problem: ProblemMissingField}
	}
	raw, ok := rec.fields[FieldHomeworks]
	if !ok {
		return nil, &SchemaError{Field: FieldHomeworks, Problem: ProblemMissingField}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &SchemaError{Field: FieldHomeworks, Problem: ProblemWrongType, Got: jsonKind(trimmed)}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &SchemaError{Field: FieldHomeworks, Problem: ProblemWrongType, Got: jsonKind(trimmed)}
	}
	if len(elems) == 0 {
		return []ItemStatus{}, nil
	}

	items := make([]ItemStatus, len(elems))
	first := bytes.TrimSpace(elems[0])
	field := fmt.Sprintf("%s[0]", FieldHomeworks)
	if len(first) == 0 || first[0] != '{' {
		return nil, &SchemaError{Field: field, Problem: ProblemWrongType, Got: jsonKind(first)}
	}
	if err := json.Unmarshal(first, &items[0]); err != nil {
		// homework_name or status present but not a string.
		return nil, &SchemaError{Field: field, Problem: ProblemWrongType, Got: "object"}
	}
	for i, el := range elems[1:] {
		var it ItemStatus
		if json.Unmarshal(el, &it) == nil {
			items[i+1] = it
		}
	}
	return items, nil
}

func jsonKind(raw []byte) string {
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
