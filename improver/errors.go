package improver

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies pipeline failures.
type Kind string

const (
	KindConfiguration   Kind = "configuration"
	KindTimeout         Kind = "timeout"
	KindUpstream        Kind = "upstream"
	KindInvalidResponse Kind = "invalid_response"
)

// Error is the only error type the pipeline returns to callers.
type Error struct {
	Kind      Kind
	Status    int
	Retryable bool
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigurationError reports a missing credential or unusable settings.
func ConfigurationError(msg string) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

// TimeoutError reports a completion call that hit its deadline or was canceled.
func TimeoutError(after time.Duration, err error) *Error {
	msg := "completion request timed out"
	if after > 0 {
		msg = fmt.Sprintf("completion request timed out after %s", after)
	}
	return &Error{Kind: KindTimeout, Retryable: true, Msg: msg, Err: err}
}

// UpstreamError reports a non-2xx answer; status 0 means no answer at all.
func UpstreamError(status int, err error) *Error {
	msg := "completion service request failed"
	if text := http.StatusText(status); text != "" {
		msg = "completion service returned " + text
	}
	return &Error{Kind: KindUpstream, Status: status, Retryable: RetryableStatus(status), Msg: msg, Err: err}
}

// InvalidResponseError reports a reply without usable content.
func InvalidResponseError(msg string) *Error {
	return &Error{Kind: KindInvalidResponse, Msg: msg}
}

// RetryableStatus is true for 429 and 5xx.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

// KindOf returns the pipeline kind of err, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether the caller may retry the same input.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
