package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bilalbayram/eventscli/internal/events"
	"github.com/bilalbayram/eventscli/internal/output"
)

const (
	remediationUnknown    = "unknown"
	remediationAuth       = "auth"
	remediationNotFound   = "not_found"
	remediationValidation = "validation"
	remediationRateLimit  = "rate_limit"
	remediationTransient  = "transient"
	remediationConfig     = "config"
)

func writeSuccess(cmd *cobra.Command, runtime Runtime, commandName string, data any, paging any) error {
	envelope := output.NewEnvelope(commandName, true, data, paging, nil)
	return output.Write(cmd.OutOrStdout(), selectedOutputFormat(runtime), envelope)
}

func writeCommandError(cmd *cobra.Command, runtime Runtime, commandName string, err error) error {
	if err == nil {
		return nil
	}
	errorInfo := &output.ErrorInfo{
		Type:        "error",
		Message:     err.Error(),
		Remediation: classifyRemediation(err),
	}
	var apiErr *events.APIError
	if errors.As(err, &apiErr) {
		errorInfo.Type = "api_error"
		errorInfo.Code = apiErr.Code
		errorInfo.StatusCode = apiErr.StatusCode
		errorInfo.RequestID = apiErr.RequestID
		errorInfo.Retryable = apiErr.Retryable
	}
	var transientErr *events.TransientError
	if errors.As(err, &transientErr) {
		errorInfo.Type = "transient_error"
		errorInfo.Retryable = true
	}

	envelope := output.NewEnvelope(commandName, false, nil, nil, errorInfo)
	if writeErr := output.Write(cmd.ErrOrStderr(), selectedOutputFormat(runtime), envelope); writeErr != nil {
		return fmt.Errorf("%w (secondary output error: %v)", err, writeErr)
	}
	return &printedError{err: err}
}

func classifyRemediation(err error) *output.Remediation {
	var apiErr *events.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return &output.Remediation{
				Category: remediationAuth,
				Summary:  "The service rejected the credentials.",
				Actions: []string{
					"Run `events auth login` to store a fresh access token.",
					"Check that the profile client_id is subscribed to I/O Management API.",
				},
			}
		case apiErr.StatusCode == http.StatusNotFound:
			return &output.Remediation{
				Category: remediationNotFound,
				Summary:  "The requested resource does not exist in this scope.",
				Actions:  []string{"Verify the ids and the selected org/project/workspace with `events profile show`."},
			}
		case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusConflict || apiErr.StatusCode == http.StatusUnprocessableEntity:
			return &output.Remediation{
				Category: remediationValidation,
				Summary:  "The request body was rejected.",
				Actions:  []string{"Fix the fields named in the message and retry."},
			}
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return &output.Remediation{
				Category: remediationRateLimit,
				Summary:  "The service is throttling requests.",
				Actions:  []string{"Wait before retrying."},
			}
		case apiErr.StatusCode >= 500:
			return &output.Remediation{
				Category: remediationTransient,
				Summary:  "The service failed to handle the request.",
				Actions:  []string{"Retry later; include the request_id when reporting the failure."},
			}
		}
	}
	switch ExitCode(err) {
	case exitConfig:
		return &output.Remediation{
			Category: remediationConfig,
			Summary:  "Required configuration is missing or invalid.",
			Actions:  []string{"Check app.config.yaml, the .env file and the selected profile."},
		}
	case exitAuth:
		return &output.Remediation{
			Category: remediationAuth,
			Summary:  "No usable access token.",
			Actions:  []string{"Run `events auth login` or set EVENTS_ACCESS_TOKEN."},
		}
	}
	return &output.Remediation{
		Category: remediationUnknown,
		Summary:  "Unhandled command failure.",
		Actions:  []string{"Review the error message and fix input/configuration before retrying."},
	}
}

func selectedOutputFormat(runtime Runtime) string {
	if runtime.Output == nil || *runtime.Output == "" {
		return "json"
	}
	return *runtime.Output
}
