package storage

import (
	"errors"
	"strings"

	"github.com/hongminglow/social-be/internal/models"
)

const (
	msgNotFound      = "User not found"
	msgInvalidID     = "Invalid user id"
	msgUniqueDefault = "Unique field already exists"
	msgUnknown       = "Something went wrong"
)

// Translator turns store errors into messages safe to show to API clients.
type Translator struct{}

// Message returns the user-facing message for err.
func (Translator) Message(err error) string {
	var validationErr *models.ValidationError
	var uniqueErr *UniqueError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &uniqueErr):
		return uniqueMessage(uniqueErr.Field)
	case errors.Is(err, ErrAlreadyExists):
		return msgUniqueDefault
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrInvalidID):
		return msgInvalidID
	default:
		return msgUnknown
	}
}

func uniqueMessage(field string) string {
	field = strings.TrimSpace(field)
	if field == "" {
		return msgUniqueDefault
	}
	return strings.ToUpper(field[:1]) + field[1:] + " already exists"
}
