package chat

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the four taxonomy members. The
// classification happens exactly once, at the point of detection; callers
// either handle a specific kind or the generic catch-all.
type Kind string

const (
	// KindConnection indicates a transport-level failure: unreachable host,
	// DNS failure, or a timeout during connect or read.
	KindConnection Kind = "connection"
	// KindAuthentication indicates the upstream rejected or challenged the
	// request (401/403 or a bot-challenge page).
	KindAuthentication Kind = "authentication"
	// KindParse indicates a response body was received but no usable text
	// could be extracted from it, including the zero-fragment case.
	KindParse Kind = "parse"
	// KindGeneric is the catch-all for anything not classified above.
	KindGeneric Kind = "generic"
)

// Sentinel values for errors.Is matching. Each *Error reports itself as the
// sentinel of its kind, and every *Error matches ErrChat.
var (
	// ErrChat matches any error produced by this library.
	ErrChat = errors.New("chat error")
	// ErrConnection matches errors of KindConnection.
	ErrConnection = errors.New("connection error")
	// ErrAuthentication matches errors of KindAuthentication.
	ErrAuthentication = errors.New("authentication error")
	// ErrParse matches errors of KindParse.
	ErrParse = errors.New("parse error")
)

// Error is the single error type raised by the client. It carries the
// taxonomy kind, a human-readable message, and the wrapped cause, if any.
type Error struct {
	Kind    Kind
	Message string
	// Err is the underlying cause, kept for debugging; may be nil.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches one of the package sentinels. This is
// what makes errors.Is(err, chat.ErrParse) work without exposing Kind checks
// at every call site.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrChat:
		return true
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// NewConnectionError creates a KindConnection error wrapping cause.
func NewConnectionError(message string, cause error) *Error {
	return &Error{Kind: KindConnection, Message: message, Err: cause}
}

// NewAuthenticationError creates a KindAuthentication error. There is usually
// no useful cause to wrap: the upstream answered, it just said no.
func NewAuthenticationError(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// NewParseError creates a KindParse error wrapping cause.
func NewParseError(message string, cause error) *Error {
	return &Error{Kind: KindParse, Message: message, Err: cause}
}

// NewGenericError creates a KindGeneric error wrapping cause.
func NewGenericError(message string, cause error) *Error {
	return &Error{Kind: KindGeneric, Message: message, Err: cause}
}
