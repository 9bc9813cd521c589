package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxUsernameLen   = 50
	maxEmailLen      = 255
)

// RegisterInput holds parameters for account registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func (i *RegisterInput) normalize() {
	i.Username = strings.TrimSpace(i.Username)
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
}

// Validate validates the register input.
func (i RegisterInput) Validate() error {
	var errs []domain.FieldError

	switch n := utf8.RuneCountInString(i.Username); {
	case n == 0:
		errs = append(errs, domain.FieldError{Field: "username", Message: "required"})
	case n < 3:
		errs = append(errs, domain.FieldError{Field: "username", Message: "min 3 characters"})
	case n > maxUsernameLen:
		errs = append(errs, domain.FieldError{Field: "username", Message: "max 50 characters"})
	}

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	} else if len(i.Email) > maxEmailLen {
		errs = append(errs, domain.FieldError{Field: "email", Message: "too long"})
	} else if addr, err := mail.ParseAddress(i.Email); err != nil || addr.Address != i.Email {
		errs = append(errs, domain.FieldError{Field: "email", Message: "invalid email"})
	}

	errs = append(errs, validatePassword(i.Password)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// LoginInput holds parameters for password login.
type LoginInput struct {
	Username string
	Password string
}

// Validate validates the login input.
func (i LoginInput) Validate() error {
	var errs []domain.FieldError

	if i.Username == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "required"})
	}
	if i.Password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validatePassword(password string) []domain.FieldError {
	switch {
	case password == "":
		return []domain.FieldError{{Field: "password", Message: "required"}}
	case utf8.RuneCountInString(password) < minPasswordLen:
		return []domain.FieldError{{Field: "password", Message: "min 8 characters"}}
	case len(password) > maxPasswordBytes:
		return []domain.FieldError{{Field: "password", Message: "max 72 bytes"}}
	}
	return nil
}
