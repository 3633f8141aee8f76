package validation

import (
	"fmt"
	"regexp"

	"github.com/yourorg/trencl/internal/models"
)

// Patrón RFC-lite: parte local, "@", dominio, ".", tld. Suficiente para
// rechazar basura obvia sin intentar validar RFC 5322 completo.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// EmailError describe un email rechazado.
type EmailError struct {
	Email  string
	Reason string
}

func (e *EmailError) Error() string {
	return fmt.Sprintf("invalid email %q: %s", e.Email, e.Reason)
}

func (e *EmailError) Unwrap() error {
	return models.ErrInvalidArgument
}

// ValidateEmail valida la sintaxis de un email.
func ValidateEmail(email string) error {
	if email == "" {
		return &EmailError{Email: email, Reason: "empty"}
	}
	if len(email) > 254 {
		return &EmailError{Email: email, Reason: "too long"}
	}
	if !emailPattern.MatchString(email) {
		return &EmailError{Email: email, Reason: "must match local@domain.tld"}
	}
	return nil
}
