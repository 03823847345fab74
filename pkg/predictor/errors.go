package predictor

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a payload that failed pre-flight checks. The
// orchestrator validates before calling Predict, so seeing this out of
// the client itself means a caller skipped validation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "payload validation failed: " + strings.Join(e.Violations, "; ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// APIError means the prediction service explicitly rejected the
// request. Code, type and request id are carried for support
// correlation.
type APIError struct {
	Code      string
	Type      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("prediction service error [%s/%s]: %s", e.Code, e.Type, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (request_id=%s)", e.RequestID)
	}
	return msg
}

func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// NetworkError covers transport failures and timeouts. These are the
// failures worth a user-triggered retry.
type NetworkError struct {
	Message string
	Cause   error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
