// Package ferror defines the tagged error value returned by the fetch
// core for everything that isn't a synchronous argument-validation
// failure.
package ferror

import "fmt"

// Type is the closed set of FetchError kinds.
type Type string

const (
	TypeSystem          Type = "system"
	TypeRequestTimeout  Type = "request-timeout"
	TypeBodyTimeout     Type = "body-timeout"
	TypeMaxSize         Type = "max-size"
	TypeMaxRedirect     Type = "max-redirect"
	TypeNoRedirect      Type = "no-redirect"
	TypeInvalidRedirect Type = "invalid-redirect"
	TypeInvalidJSON     Type = "invalid-json"
	// TypeAlreadyUsed isn't in spec.md's §7 enumeration but is required
	// by §3/§4.1/§8 for re-entrant body consumption.
	TypeAlreadyUsed Type = "already-used"
)

// Error is a FetchError: {name: 'FetchError', message, type, code?, errno?}.
type Error struct {
	Type    Type
	Message string
	// Code and Errno carry the underlying system error name (e.g.
	// "ECONNRESET", "Z_DATA_ERROR") when Type == TypeSystem. Code ==
	// Errno always, kept as two fields to mirror the node-derived shape.
	Code  string
	Errno string
	Err   error
}

func New(t Type, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// NewSystem builds a TypeSystem error carrying the underlying code.
func NewSystem(message, code string, err error) *Error {
	return &Error{Type: TypeSystem, Message: message, Code: code, Errno: code, Err: err}
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ArgumentError is the TypeError-kind surfaced for synchronous
// construction failures (bad URL, forbidden body on GET/HEAD, bad
// scheme, malformed header names).
type ArgumentError struct {
	Message string
	Err     error
}

func NewArgument(message string, err error) *ArgumentError {
	return &ArgumentError{Message: message, Err: err}
}

func (e *ArgumentError) Error() string { return e.Message }
func (e *ArgumentError) Unwrap() error { return e.Err }
