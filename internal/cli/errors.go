package cli

import (
	"errors"
	"fmt"
)

// Process exit codes. Hooks rely on a non-zero code to abort the deploy.
const (
	ExitCodeUnknown = 1
	ExitCodeConfig  = 2
	ExitCodeAuth    = 3
	ExitCodeInput   = 4
	ExitCodeAPI     = 5
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("events exited with code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func WrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCodeOf returns the code carried by an ExitError, or ExitCodeUnknown.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return ExitCodeUnknown
}

// AlreadyPrinted reports whether a command already wrote err as an output
// envelope or help text.
func AlreadyPrinted(err error) bool {
	var marker interface{ AlreadyPrinted() bool }
	return errors.As(err, &marker) && marker.AlreadyPrinted()
}
