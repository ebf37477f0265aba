package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// getPassword prints prompt to w and reads a password from the terminal
// without echo.
func getPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// getNewPassword asks for a password twice. The returned slice should be
// wiped by the caller.
func getNewPassword(w io.Writer) ([]byte, error) {
	pw, err := getPassword(w, "Enter password: ")
	if err != nil {
		return nil, err
	}
	repeat, err := getPassword(w, "Repeat password: ")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(repeat)

	if string(pw) != string(repeat) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}
