// Package errors provides domain-specific error types for wstalk.
//
// These types carry structured context (operation, endpoint, close
// reason) so callers can tell an orderly connection shutdown apart
// from a genuine failure.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrClosed matches any ClosedError via errors.Is.
	ErrClosed = errors.New("connection closed")

	// ErrNotConnected is returned when an operation runs before the
	// handshake has produced an open channel.
	ErrNotConnected = errors.New("not connected")
)

// ── Structured error types ───────────────────────────────────────────

// ClosedError reports that the message channel has closed, observed
// from either direction of traffic. Reason carries the peer-supplied
// close reason when the transport provided one.
type ClosedError struct {
	Reason string // optional human-readable close reason
	Err    error  // underlying transport error
}

func (e *ClosedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("connection closed: %s", e.Reason)
	}
	return "connection closed"
}

func (e *ClosedError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrClosed) match every ClosedError.
func (e *ClosedError) Is(target error) bool { return target == ErrClosed }

// NetworkError represents a failure while establishing or using a
// network endpoint.
type NetworkError struct {
	Op   string // operation: "dial", "handshake", "read", "write"
	Addr string // endpoint involved
	Err  error  // underlying error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents a tunnel failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// Closed creates a ClosedError carrying the peer's close reason.
func Closed(reason string, err error) *ClosedError {
	return &ClosedError{Reason: reason, Err: err}
}

// Wrap creates a NetworkError.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsClosed reports whether err indicates an orderly channel closure.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// CloseReason extracts the peer-supplied close reason from err, or ""
// when err is not a closure or no reason was given.
func CloseReason(err error) string {
	var ce *ClosedError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use wstalk/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
