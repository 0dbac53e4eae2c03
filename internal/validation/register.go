// Package validation contains input validation rules for account operations.
package validation

import (
	"strings"

	"updoot/internal/models"
)

// ValidateRegister checks registration input and returns field-scoped errors,
// or nil when the input is acceptable.
func ValidateRegister(email, username, password string) []models.FieldError {
	if !strings.Contains(email, "@") {
		return []models.FieldError{{
			Field:   "email",
			Message: "Invalid email",
		}}
	}

	if len(username) <= 2 {
		return []models.FieldError{{
			Field:   "username",
			Message: "Username must be at least 3 characters long",
		}}
	}

	if strings.Contains(username, "@") {
		return []models.FieldError{{
			Field:   "username",
			Message: "Username cannot have a '@'",
		}}
	}

	if len(password) <= 3 {
		return []models.FieldError{{
			Field:   "password",
			Message: "Password must be at least 4 characters long",
		}}
	}

	return nil
}

// ValidatePassword checks a standalone password change.
func ValidatePassword(password string) []models.FieldError {
	if len(password) <= 3 {
		return []models.FieldError{{
			Field:   "newPassword",
			Message: "Password must be at least 4 characters long",
		}}
	}
	return nil
}
