package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an API failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork           // request never produced a response
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindPayloadTooLarge
	KindServerFault
	KindDecode // malformed response or credential payload
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindServerFault:
		return "server_fault"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a classified API failure. Message carries the server-supplied
// human-readable text when present.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// classifyStatus maps an HTTP status to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case status >= 500:
		return KindServerFault
	default:
		return KindUnknown
	}
}

// KindOf returns the classification of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a classified 404.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsUnauthorized reports whether err is a classified 401.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// MessageOf extracts the server-supplied message from err, falling back to
// err.Error() for foreign errors.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
