// Package core is the orchestration layer.  It composes a transport
// dialer, the session, and the chat loops into a complete client run,
// and owns the subscription that turns the operator's interrupt
// keystroke into latch activity.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  chat  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of wstalk.  Each mode
// owns its full lifecycle from connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
