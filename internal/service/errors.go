package service

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrEmailTaken            = errors.New("email is taken")
	ErrAccountNotFound       = errors.New("account not found")
	ErrTokenMissing          = errors.New("token is missing")
	ErrExpiredOrInvalid      = errors.New("expired or invalid token")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrEmailSendFailure      = errors.New("email send failed")
	ErrAssertionVerification = errors.New("assertion verification failed")
	ErrUnverifiedAssertion   = errors.New("assertion not verified")
	ErrProviderNotSupported  = errors.New("identity provider not supported")
)

// validationError envuelve el primer error de ozzo-validation (orden por campo) en ErrValidation.
func validationError(err error) error {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	first := fields[0]
	return fmt.Errorf("%w: %s %v", ErrValidation, first, fieldErrs[first])
}
