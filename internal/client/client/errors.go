package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrNetwork      = errors.New("network failure")
	ErrTimeout      = errors.New("request timed out")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDecode       = errors.New("unexpected response body")
	ErrInvalidOTP   = errors.New("otp must be 6 digits")
)

// ErrorPayload is the server's error body. Error is usually a string; when
// the server sends a structured value instead, its raw JSON lands in Details.
type ErrorPayload struct {
	Error   string          `json:"error"`
	Message string          `json:"message,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// APIError is a non-2xx answer. Data is the body exactly as received.
type APIError struct {
	Status  int
	Data    json.RawMessage
	Payload ErrorPayload
}

func (e *APIError) Error() string {
	msg := e.Payload.Error
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Payload.Message != "" {
		msg += ": " + e.Payload.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Data: json.RawMessage(body)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return e
	}

	if raw, ok := fields["error"]; ok {
		if err := json.Unmarshal(raw, &e.Payload.Error); err != nil {
			e.Payload.Details = raw
		}
	}
	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &e.Payload.Message)
	}
	if raw, ok := fields["details"]; ok {
		e.Payload.Details = raw
	}
	return e
}

// classify maps a transport error onto ErrTimeout or ErrNetwork, keeping
// the cause in the chain. Cancellation by the caller passes through as is.
func classify(ctx context.Context, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return err
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}
