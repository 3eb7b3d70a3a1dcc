// Package verdict renders a homework status as the message sent to the student.
package verdict

import (
	"fmt"

	"hwbot/internal/homework"
)

// Known review status codes.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

var verdicts = map[string]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

const messageFormat = `Изменился статус проверки работы "%s". %s`

// Lookup returns the fixed verdict text for a status code.
func Lookup(status string) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

// Format returns the notification sentence for item. It fails with
// *MissingFieldError when the name or status is absent and with
// *UnknownStatusError when the status code has no verdict.
func Format(item homework.ItemStatus) (string, error) {
	if item.Name == nil {
		return "", &MissingFieldError{Field: homework.FieldName}
	}
	if item.Status == nil {
		return "", &MissingFieldError{Field: homework.FieldStatus, Item: *item.Name}
	}
	v, ok := Lookup(*item.Status)
	if !ok {
		return "", &UnknownStatusError{Status: *item.Status, Item: *item.Name}
	}
	return fmt.Sprintf(messageFormat, *item.Name, v), nil
}
