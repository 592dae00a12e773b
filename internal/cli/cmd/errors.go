package cmd

import (
	"errors"
	"os"

	"github.com/bilalbayram/eventscli/internal/auth"
	"github.com/bilalbayram/eventscli/internal/config"
	"github.com/bilalbayram/eventscli/internal/events"
	"github.com/bilalbayram/eventscli/internal/hooks"
	"github.com/bilalbayram/eventscli/internal/registration"
)

const (
	exitUnknown = 1
	exitConfig  = 2
	exitAuth    = 3
	exitInput   = 4
	exitAPI     = 5
)

// inputError marks failures caused by flags or arguments.
type inputError struct {
	err error
}

func (e *inputError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *inputError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	return &inputError{err: err}
}

// printedError is returned once the failure envelope has been written.
type printedError struct {
	err error
}

func (e *printedError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *printedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *printedError) AlreadyPrinted() bool {
	return true
}

// ExitCode maps a command failure to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var apiErr *events.APIError
	var transientErr *events.TransientError
	var input *inputError
	switch {
	case errors.As(err, &input):
		return exitInput
	case errors.As(err, &apiErr), errors.As(err, &transientErr):
		return exitAPI
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrSecretNotFound):
		return exitAuth
	case errors.Is(err, registration.ErrInvalidDeclaration),
		errors.Is(err, registration.ErrUnmappedProviderMetadata),
		errors.Is(err, hooks.ErrMissingRuntimeAction):
		return exitInput
	case errors.Is(err, registration.ErrMissingAPIKey),
		errors.Is(err, registration.ErrMissingMetadataMapping),
		errors.Is(err, registration.ErrMalformedMapping),
		errors.Is(err, registration.ErrIncompleteProject),
		errors.Is(err, hooks.ErrNoProject),
		errors.Is(err, config.ErrNoDefaultProfile),
		errors.Is(err, os.ErrNotExist):
		return exitConfig
	default:
		return exitUnknown
	}
}
