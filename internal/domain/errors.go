package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySubmission = errors.New("empty submission")
	ErrTurnPending     = errors.New("a turn is already pending")
	ErrStoreClosed     = errors.New("conversation closed")
	ErrSessionNotFound = errors.New("session not found")
)

// ErrorKind is the failure taxonomy. Kinds are for logs only; users always
// see the same apology text.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNetwork           ErrorKind = "network"
	KindServer            ErrorKind = "server"
	KindMalformedResponse ErrorKind = "malformed-response"
)

// GatewayError is returned by AssistantGateway implementations.
type GatewayError struct {
	Kind ErrorKind
	// HTTP status for KindServer, zero otherwise.
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("assistant %s error (status %d): %v", e.Kind, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("assistant %s error (status %d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("assistant %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("assistant %s error", e.Kind)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError wraps err with a kind.
func NewGatewayError(kind ErrorKind, err error) *GatewayError {
	return &GatewayError{Kind: kind, Err: err}
}

// KindOf classifies any error produced along the send path. Unknown errors
// count as network failures since the call did not complete.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	if errors.Is(err, ErrEmptySubmission) || errors.Is(err, ErrTurnPending) {
		return KindValidation
	}
	return KindNetwork
}
