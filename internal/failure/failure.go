package failure

import (
	"errors"
	"fmt"
)

// Kind enumerates the failures the scraper engine reports. A Kind is itself an
// error so callers can match with errors.Is(err, failure.TemplateNotFound).
type Kind int

const (
	ConfigNotLoaded Kind = iota + 1
	SessionNotCreated
	TemplateNotFound
	MultipleTemplatesFound
	InvalidTemplate
	UnsuccessfulRequest
	RequestTimeout
	RequestCanceled
	EnvNotLoaded
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case ConfigNotLoaded:
		return "config not loaded"
	case SessionNotCreated:
		return "session not created"
	case TemplateNotFound:
		return "template not found"
	case MultipleTemplatesFound:
		return "multiple templates found"
	case InvalidTemplate:
		return "invalid template"
	case UnsuccessfulRequest:
		return "unsuccessful request"
	case RequestTimeout:
		return "request timeout"
	case RequestCanceled:
		return "request canceled"
	case EnvNotLoaded:
		return "environment not loaded"
	default:
		return "unknown failure"
	}
}

func (k Kind) Error() string { return k.String() }

// Error is a failure of a known Kind with context.
// StatusCode is only set for UnsuccessfulRequest.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches both the Kind sentinel and another *Error of the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Unsuccessful reports an HTTP status considered a failure.
func Unsuccessful(status int, method, url string) *Error {
	return &Error{
		Kind:       UnsuccessfulRequest,
		Message:    fmt.Sprintf("%s %s returned status %d", method, url, status),
		StatusCode: status,
	}
}

// KindOf returns the Kind carried by err, or 0 when err is not a scraper failure.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return 0
}

// StatusCode returns the HTTP status attached to an UnsuccessfulRequest failure.
func StatusCode(err error) (int, bool) {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == UnsuccessfulRequest {
		return fe.StatusCode, true
	}
	return 0, false
}
