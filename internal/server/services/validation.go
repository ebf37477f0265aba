package services

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/abswdsmn/conference-organiser/internal/common"
)

const (
	maxEmailLength    = 254
	maxUsernameLength = 25
	maxPasswordLength = 4096
)

// FieldErrors maps form fields to the message shown next to them. It
// matches common.ErrorValidation with errors.Is.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Is(target error) bool {
	return target == common.ErrorValidation
}

func (fe FieldErrors) add(field string, err error) {
	if _, ok := fe[field]; !ok {
		fe[field] = err.Error()
	}
}

func (fe FieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func validateEmail(fe FieldErrors, email string) {
	if email == "" || utf8.RuneCountInString(email) > maxEmailLength {
		fe.add("email", common.ErrInvalidEmail)
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		fe.add("email", common.ErrInvalidEmail)
	}
}

func validateUsername(fe FieldErrors, username string) {
	switch {
	case strings.TrimSpace(username) == "":
		fe.add("username", common.ErrBlankUsername)
	case utf8.RuneCountInString(username) > maxUsernameLength:
		fe.add("username", common.ErrUsernameTooLong)
	}
}

func validatePassword(fe FieldErrors, password, repeat string) {
	switch {
	case password == "":
		fe.add("password", common.ErrBlankPassword)
	case utf8.RuneCountInString(password) > maxPasswordLength:
		fe.add("password", common.ErrPasswordTooLong)
	case password != repeat:
		fe.add("password", common.ErrPasswordMismatch)
	}
}
