package constants

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidIndexName = errors.New("index is not allowed in the search engine")
	ErrDeserialization  = errors.New("document does not fit the target type")
	ErrNotFound         = errors.New("document not found")
	ErrBadRequest       = errors.New("request rejected by the search engine")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrTransport        = errors.New("transport failure")
	ErrInvalidResponse  = errors.New("invalid search engine response")
	ErrUnbalanced       = errors.New("unbalanced document writer events")
)

var (
	ErrNoBaseURL        = errors.New("base url not set")
	ErrNoMarshaler      = errors.New("marshaler is not set")
	ErrNoUnmarshaler    = errors.New("unmarshaler is not set")
	ErrNilEntity        = errors.New("entity is nil")
	ErrRoutingMissing   = errors.New("routing is required for this document, add the parent id")
	ErrUnsupportedCodec = errors.New("unsupported document content type")
)

// InvalidIndexNameError is returned before anything is sent when a type
// resolves to an index name the engine would refuse.
type InvalidIndexNameError struct {
	Index string
	Type  string
}

func (e *InvalidIndexNameError) Error() string {
	return fmt.Sprintf("%s: %q (type %s)", ErrInvalidIndexName, e.Index, e.Type)
}

func (e *InvalidIndexNameError) Unwrap() error {
	return ErrInvalidIndexName
}

// DeserializationError carries the payload fragment that could not be parsed.
type DeserializationError struct {
	Target   string
	Fragment string
	Err      error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("%s: target %s: %v: %s", ErrDeserialization, e.Target, e.Err, e.Fragment)
}

func (e *DeserializationError) Unwrap() []error {
	return []error{ErrDeserialization, e.Err}
}

type NotFoundError struct {
	Index string
	Type  string
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s/%s/%s", ErrNotFound, e.Index, e.Type, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RequestError is a 400 answer; Description holds the engine's error body.
type RequestError struct {
	Description string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBadRequest, e.Description)
}

func (e *RequestError) Unwrap() error {
	return ErrBadRequest
}

type StatusError struct {
	StatusCode  int
	Description string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", ErrUnexpectedStatus, e.StatusCode, e.Description)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// TransportError wraps failures below the HTTP status level (dial, TLS, timeouts).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrTransport, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}
