// Package transport establishes the encrypted message channel the
// rest of the client talks through.  Dialers handle the "how" of
// reaching the endpoint (direct TLS, or through an SSH bastion); the
// Conn they produce is a plain ordered text-message pipe, independent
// of what the messages mean (which is the operator's business).
package transport

import "context"

// Conn is an open bidirectional message channel.
//
// Implementations report closure as a ClosedError from Receive or
// Send and flip Open to false exactly once, on the first closure
// observed from either direction.  Only the transport writes the
// open flag; both traffic loops merely read it.
type Conn interface {
	// Receive blocks for the next inbound message.
	Receive() (string, error)

	// Send pushes one outbound message.
	Send(message string) error

	// Open reports whether the channel can still carry messages.
	Open() bool

	// CloseReason returns the peer-supplied close reason, if the
	// channel is closed and one was given.
	CloseReason() string

	// Close tears the channel down locally.
	Close() error
}

// Dialer opens a message channel to an endpoint URL.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH client).  Stateless dialers return nil.
	Close() error
}
