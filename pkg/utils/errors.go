package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing component boundaries.
type ErrorKind string

const (
	KindPolicyDenied     ErrorKind = "policy_denied"
	KindNotConnected     ErrorKind = "not_connected"
	KindConnectionFailed ErrorKind = "connection_failed"
	KindTimeout          ErrorKind = "timeout"
	KindTransport        ErrorKind = "transport_error"
	KindConfig           ErrorKind = "config_error"
)

// AdminError carries a failure kind and numeric code alongside the
// message. Components return it as a value; it never crosses a boundary
// as a panic.
type AdminError struct {
	Code    int       `json:"code"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AdminError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Is matches two AdminErrors by kind, so callers can use errors.Is with
// a kind sentinel regardless of message content.
func (e *AdminError) Is(target error) bool {
	var other *AdminError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf extracts the error kind, or empty string for foreign errors.
func KindOf(err error) ErrorKind {
	var ae *AdminError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func NewPolicyDeniedError(serverName, command string) *AdminError {
	return &AdminError{
		Code:    1001,
		Kind:    KindPolicyDenied,
		Message: fmt.Sprintf("command '%s' not allowed for server %s", command, serverName),
	}
}

func NewNotConnectedError(serverName string) *AdminError {
	return &AdminError{
		Code:    1002,
		Kind:    KindNotConnected,
		Message: fmt.Sprintf("not connected to server %s", serverName),
	}
}

func NewConnectionFailedError(serverName string, attempts int) *AdminError {
	return &AdminError{
		Code:    2001,
		Kind:    KindConnectionFailed,
		Message: fmt.Sprintf("connection to %s failed after %d attempts", serverName, attempts),
	}
}

func NewTimeoutError(serverName string, err error) *AdminError {
	return &AdminError{
		Code:    2002,
		Kind:    KindTimeout,
		Message: fmt.Sprintf("operation on %s timed out", serverName),
		Details: err.Error(),
	}
}

func NewTransportError(serverName string, err error) *AdminError {
	return &AdminError{
		Code:    3001,
		Kind:    KindTransport,
		Message: fmt.Sprintf("transport failure on %s", serverName),
		Details: err.Error(),
	}
}

func NewConfigError(err error) *AdminError {
	return &AdminError{
		Code:    4001,
		Kind:    KindConfig,
		Message: "invalid configuration",
		Details: err.Error(),
	}
}
