package verdict

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrMissingField  = errors.New("homework entry field missing")
	ErrUnknownStatus = errors.New("unknown homework status")
)

// MissingFieldError reports an entry without homework_name or status.
type MissingFieldError struct {
	Field string
	// Item is the homework name when it is known.
	Item string
}

func (e *MissingFieldError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("homework %q: field %q missing", e.Item, e.Field)
	}
	return fmt.Sprintf("homework entry: field %q missing", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// UnknownStatusError reports a status code with no verdict text.
type UnknownStatusError struct {
	Status string
	Item   string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("homework %q: unknown status %q", e.Item, e.Status)
}

func (e *UnknownStatusError) Is(target error) bool { return target == ErrUnknownStatus }
