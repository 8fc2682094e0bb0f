package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/waabox/constitutiongpt/internal/domain"
)

// APIError is a non-2xx answer from the API. Its message is the server's
// human-readable detail.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap lets callers match well-known statuses with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// SessionExpiredError is returned when the refresh credential is missing or
// was rejected. By the time it is returned the stored session has been purged
// and subscribers have been notified.
type SessionExpiredError struct {
	Reason string
	Err    error
}

func (e *SessionExpiredError) Error() string {
	return e.Reason
}

func (e *SessionExpiredError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrSessionExpired}
	}
	return []error{domain.ErrSessionExpired, e.Err}
}

func newAPIError(status int, body []byte) *APIError {
	msg := detailMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("request failed: %d %s", status, http.StatusText(status))
	}
	return &APIError{Status: status, Message: msg}
}

// detailMessage extracts the "detail" field. It is a string for handled
// errors and a list of {msg} objects for request validation failures.
func detailMessage(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
