package session

import (
	"fmt"
	"strings"
)

// ValidationError reports an input rejected before the store or engine is
// touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// normalizeEmail trims email and checks it looks like an address.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("email", "is required")
	}
	if !strings.Contains(email, "@") {
		return "", invalid("email", "%q is not an email address", email)
	}
	return email, nil
}
