package events

import "fmt"

type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
	Retryable  bool   `json:"retryable"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("events api error status=%d code=%s request_id=%s: %s", e.StatusCode, e.Code, e.RequestID, e.Message)
	}
	return fmt.Sprintf("events api error status=%d request_id=%s: %s", e.StatusCode, e.RequestID, e.Message)
}

type TransientError struct {
	Message    string
	StatusCode int
}

func (e *TransientError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}
