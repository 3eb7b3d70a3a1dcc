package homework

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrMalformed matches any *MalformedResponseError via errors.Is.
	ErrMalformed = errors.New("malformed status response")
	// ErrSchema matches any *SchemaError via errors.Is.
	ErrSchema = errors.New("status response schema violation")
)

// MalformedResponseError reports a body that is not a JSON object.
type MalformedResponseError struct {
	Err     error
	Excerpt string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed status response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error        { return e.Err }
func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformed }

// SchemaProblem tells a missing field apart from a field of the wrong type.
type SchemaProblem string

const (
	ProblemMissingField SchemaProblem = "missing field"
	ProblemWrongType    SchemaProblem = "wrong type"
)

// SchemaError reports a record that does not have the expected shape.
type SchemaError struct {
	Field   string
	Problem SchemaProblem
	// Got is the JSON kind found for ProblemWrongType.
	Got string
}

func (e *SchemaError) Error() string {
	if e.Problem == ProblemWrongType && e.Got != "" {
		return fmt.Sprintf("status response: %s: %s (got %s)", e.Field, e.Problem, e.Got)
	}
	return fmt.Sprintf("status response: %s: %s", e.Field, e.Problem)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
