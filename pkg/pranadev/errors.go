package pranadev

import (
	"errors"
	"fmt"
)

type TransportErrorKind int

const (
	TransportTimeout TransportErrorKind = iota
	TransportConnectionRefused
	TransportMalformedResponse
	TransportHTTPStatus
)

func (k TransportErrorKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportConnectionRefused:
		return "connection_refused"
	case TransportMalformedResponse:
		return "malformed_response"
	case TransportHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// TransportError is the only error type returned by a Transport.
// StatusCode is set only for TransportHTTPStatus.
type TransportError struct {
	Kind       TransportErrorKind
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == TransportHTTPStatus {
		return fmt.Sprintf("transport error (%s %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

type ValidationErrorKind int

const (
	ValidationOutOfRange ValidationErrorKind = iota
	ValidationUnknownControl
)

func (k ValidationErrorKind) String() string {
	switch k {
	case ValidationOutOfRange:
		return "out_of_range"
	case ValidationUnknownControl:
		return "unknown_control"
	default:
		return "unknown"
	}
}

// ValidationError is returned by Translate before any network call is made.
type ValidationError struct {
	Kind    ValidationErrorKind
	Control string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command (%s): control=%s value=%v", e.Kind, e.Control, e.Value)
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
