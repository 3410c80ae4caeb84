package utils

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents malformed input caught before it reaches a service
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RegisterValidators adds the custom binding rules used by request structs:
//
//	digits  - the field consists only of ASCII digits 0-9
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return IsDigits(fl.Field().String())
	})
}

// IsDigits reports whether s is non-empty and only contains ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateIDNumber checks a 13-digit national ID number
func ValidateIDNumber(idNumber string) error {
	if len(idNumber) != 13 || !IsDigits(idNumber) {
		return &ValidationError{Code: "INVALID_ID_NUMBER", Message: "ID number must be exactly 13 digits"}
	}
	return nil
}

// ValidatePhone checks a 10-digit phone number
func ValidatePhone(phone string) error {
	if len(phone) != 10 || !IsDigits(phone) {
		return &ValidationError{Code: "INVALID_PHONE", Message: "Phone number must be exactly 10 digits"}
	}
	return nil
}

// LooksLikeEmail is the loose shape check applied before asking the identity provider
func LooksLikeEmail(email string) bool {
	return email != "" && strings.Contains(email, "@") && strings.Contains(email, ".")
}

// EmailLocalPart returns the part of an address before the '@'
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
