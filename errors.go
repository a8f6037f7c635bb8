package chatsdk

import (
	"fmt"
)

// TransportErrorKind classifies the ways the underlying socket can fail.
type TransportErrorKind string

const (
	// TransportClosed means an operation was attempted on a transport that
	// is not connected (never connected, or already closed).
	TransportClosed TransportErrorKind = "closed"
	// TransportAbnormalClosure means the socket closed with a non-normal
	// close code or an underlying I/O failure.
	TransportAbnormalClosure TransportErrorKind = "abnormalClosure"
	// TransportPingTimeout means the peer stopped answering keep-alive pings.
	TransportPingTimeout TransportErrorKind = "pingTimeout"
)

// TransportError wraps socket-level failures.
// It implements error, errors.Is (via Kind comparison), and Unwrap.
type TransportError struct {
	Kind      TransportErrorKind
	CloseCode int // websocket close code when known, 0 otherwise
	cause     error
}

// NewTransportError creates a TransportError of the given kind.
func NewTransportError(kind TransportErrorKind, closeCode int, cause error) *TransportError {
	return &TransportError{Kind: kind, CloseCode: closeCode, cause: cause}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.CloseCode != 0 {
		return fmt.Sprintf("transport error (%s): close code %d", e.Kind, e.CloseCode)
	}
	if e.cause != nil {
		return fmt.Sprintf("transport error (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("transport error (%s)", e.Kind)
}

// Unwrap returns the underlying cause, enabling errors.Is to traverse the chain.
func (e *TransportError) Unwrap() error {
	return e.cause
}

// Is implements errors.Is by comparing kinds.
func (e *TransportError) Is(target error) bool {
	t, ok := target.(*TransportError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// DecodeErrorKind classifies inbound frame decode failures.
type DecodeErrorKind string

const (
	// DecodeMalformed means the frame was not valid JSON.
	DecodeMalformed DecodeErrorKind = "malformed"
	// DecodeSchemaMismatch means the discriminator was recognized but the
	// payload did not match the expected schema.
	DecodeSchemaMismatch DecodeErrorKind = "schemaMismatch"
)

// DecodeError reports a failure to decode an inbound frame. Unknown
// discriminators are not decode errors; they produce an UnknownPayload.
type DecodeError struct {
	Kind          DecodeErrorKind
	Discriminator EventType // set for schemaMismatch
	cause         error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Kind == DecodeSchemaMismatch {
		return fmt.Sprintf("decode error (%s): event type %q: %v", e.Kind, e.Discriminator, e.cause)
	}
	if e.cause != nil {
		return fmt.Sprintf("decode error (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("decode error (%s)", e.Kind)
}

// Unwrap returns the underlying cause, enabling errors.Is to traverse the chain.
func (e *DecodeError) Unwrap() error {
	return e.cause
}

// Is implements errors.Is by comparing kinds.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// OperationError is a server-reported failure for a specific operation.
// TransactionID correlates the error back to the originating request.
type OperationError struct {
	Code          string `json:"errorCode"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"errorMessage"`
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("operation error: code=%q message=%q", e.Code, e.Message)
}

// Is implements errors.Is by comparing error codes.
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ServerError is the fallback error structure some frames carry alongside or
// instead of the operation error shape. It is informational only.
type ServerError struct {
	Message      string `json:"message"`
	ConnectionID string `json:"connectionId"`
	RequestID    string `json:"requestId"`
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// TimeoutError means no matching postback arrived within the operation's deadline.
type TimeoutError struct {
	EventID string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for postback to event %s", e.EventID)
}

// Is implements errors.Is by matching all TimeoutError instances.
// All timeouts are semantically equivalent.
func (e *TimeoutError) Is(target error) bool {
	_, ok := target.(*TimeoutError)
	return ok
}

// ConnectionLostError rejects pending operations when the connection drops.
type ConnectionLostError struct {
	cause error
}

// NewConnectionLostError creates a ConnectionLostError with an optional cause.
func NewConnectionLostError(cause error) *ConnectionLostError {
	return &ConnectionLostError{cause: cause}
}

// Error implements the error interface.
func (e *ConnectionLostError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("connection lost: %v", e.cause)
	}
	return "connection lost"
}

// Unwrap returns the underlying cause, enabling errors.Is to traverse the chain.
func (e *ConnectionLostError) Unwrap() error {
	return e.cause
}

// Is implements errors.Is by matching all ConnectionLostError instances.
func (e *ConnectionLostError) Is(target error) bool {
	_, ok := target.(*ConnectionLostError)
	return ok
}

// ValidationError is raised synchronously before any network activity when a
// local precondition fails (missing required pre-chat field, archived thread).
type ValidationError struct {
	Field string
	msg   string
}

// NewValidationError creates a ValidationError for the given field and message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, msg: msg}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.msg)
	}
	return fmt.Sprintf("validation error: %s", e.msg)
}

// Is implements errors.Is by matching all ValidationError instances.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}
