package scan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes a failure of the upload/analyze cycle
type ErrorKind string

const (
	// KindInvalidType indicates the candidate's MIME type is not an accepted image type
	KindInvalidType ErrorKind = "invalid_type"

	// KindTooLarge indicates the candidate exceeds the upload size limit
	KindTooLarge ErrorKind = "too_large"

	// KindDecodeFailed indicates the selected file could not be decoded for preview
	KindDecodeFailed ErrorKind = "decode_failed"

	// KindRequestFailed indicates a transport-level failure talking to the prediction service
	KindRequestFailed ErrorKind = "request_failed"

	// KindServerRejected indicates the prediction service answered with an error
	KindServerRejected ErrorKind = "server_rejected"
)

// User-visible messages
const (
	MsgInvalidType   = "Please upload a valid image file (PNG, JPG, or JPEG)"
	MsgTooLarge      = "File size must be less than 16MB"
	MsgDecodeFailed  = "Unable to read the selected image. Please choose another file."
	MsgAnalyzeFailed = "Failed to analyze scan. Please try again."
	MsgPredictFailed = "Prediction failed"
	MsgUnknownError  = "Unknown error occurred"
)

// Error is the single error type surfaced by the controller and the prediction client
type Error struct {
	// Kind categorizes the error
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable text shown in the error banner
	Message string `json:"message"`

	// StatusCode carries the HTTP status for server rejections
	StatusCode int `json:"status_code,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("kind=%s", e.Kind)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks
var (
	ErrInvalidType    = &Error{Kind: KindInvalidType}
	ErrTooLarge       = &Error{Kind: KindTooLarge}
	ErrDecodeFailed   = &Error{Kind: KindDecodeFailed}
	ErrRequestFailed  = &Error{Kind: KindRequestFailed}
	ErrServerRejected = &Error{Kind: KindServerRejected}
)

// NewError creates an error of the given kind
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewErrorWithCause creates an error of the given kind wrapping cause
func NewErrorWithCause(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewServerRejected creates a server rejection carrying the HTTP status
func NewServerRejected(status int, message string) *Error {
	return &Error{Kind: KindServerRejected, Message: message, StatusCode: status}
}

// KindOf returns the kind of a scan error, or "" for foreign errors
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// UserMessage returns the banner text for err, falling back to MsgAnalyzeFailed
func UserMessage(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return MsgAnalyzeFailed
}

// IsValidationError reports whether err was raised before any network call
func IsValidationError(err error) bool {
	switch KindOf(err) {
	case KindInvalidType, KindTooLarge:
		return true
	default:
		return false
	}
}
