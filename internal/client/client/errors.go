package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionExpired  = errors.New("session expired")
	ErrTransport       = errors.New("server unavailable")
	ErrServerError     = errors.New("server error")
	ErrRequestRejected = errors.New("request rejected")
	ErrInvalidResponse = errors.New("invalid response")

	// ErrUnavailable is the name callers match transport failures by.
	ErrUnavailable = ErrTransport
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrServerError:
		return e.StatusCode >= http.StatusInternalServerError
	case ErrRequestRejected:
		return e.StatusCode >= http.StatusBadRequest &&
			e.StatusCode < http.StatusInternalServerError &&
			e.StatusCode != http.StatusUnauthorized
	}
	return false
}

// Transport failure kinds, as logged and as carried by TransportError.
const (
	KindNetworkUnreachable = "network_unreachable"
	KindTimeout            = "timeout"
	KindCanceled           = "canceled"
)

// TransportError means no response was received.
type TransportError struct {
	Kind string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrTransport, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// UserMessage is the text a UI should show for err: the server's message when
// one was sent, a category description otherwise.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, ErrUnauthorized):
		return "your session is no longer valid, please log in again"
	case errors.Is(err, ErrServerError):
		return "the server failed to process the request"
	case errors.Is(err, ErrTransport):
		var te *TransportError
		if errors.As(err, &te) && te.Kind == KindTimeout {
			return "the server did not respond in time"
		}
		return "the server is unreachable, check your connection"
	}
	return err.Error()
}
