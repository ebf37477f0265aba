// Package common defines shared constants, sentinel errors and small helpers
// used across the conference organiser server and its admin CLI. Callers
// should match the errors with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Validation errors surfaced on forms.
	ErrorValidation     = errors.New("validation error")
	ErrEmailTaken       = errors.New("Email already taken")
	ErrUsernameTaken    = errors.New("Username already taken")
	ErrInvalidEmail     = errors.New("This value is not a valid email address.")
	ErrBlankUsername    = errors.New("Username should not be blank.")
	ErrUsernameTooLong  = errors.New("Username cannot be longer than 25 characters.")
	ErrPasswordMismatch = errors.New("The password fields must match.")
	ErrBlankPassword    = errors.New("Password should not be blank.")
	ErrPasswordTooLong  = errors.New("Password cannot be longer than 4096 characters.")
	ErrMissingFile      = errors.New("Please select a file to upload.")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
