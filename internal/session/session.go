// Package session owns the lifetime of one open message channel.
//
// A Session is created once the transport handshake completes and is
// destroyed when the channel closes; the receive and send loops live
// exactly as long as the session they share.  Its open/closed state
// transitions exactly once, and only the transport layer flips it.
package session

import (
	"wstalk/internal/metrics"
	"wstalk/internal/transport"
	"wstalk/util"
)

// Session binds the open message channel with the metrics collector
// and logger shared by both traffic loops.
type Session struct {
	conn transport.Conn

	Stats  *metrics.Collector
	Logger *util.Logger
}

// New creates a Session around an established channel.
func New(conn transport.Conn, stats *metrics.Collector, logger *util.Logger) *Session {
	return &Session{conn: conn, Stats: stats, Logger: logger}
}

// Open reports whether the channel can still carry messages.
func (s *Session) Open() bool { return s.conn.Open() }

// Receive blocks for the next inbound message.
func (s *Session) Receive() (string, error) {
	msg, err := s.conn.Receive()
	if err != nil {
		s.Stats.RecordError(err.Error())
		return "", err
	}
	s.Stats.MessageReceived(len(msg))
	return msg, nil
}

// Send pushes one outbound message.
func (s *Session) Send(message string) error {
	if err := s.conn.Send(message); err != nil {
		s.Stats.RecordError(err.Error())
		return err
	}
	s.Stats.MessageSent(len(message))
	return nil
}

// CloseReason returns the peer-supplied close reason, if any.
func (s *Session) CloseReason() string { return s.conn.CloseReason() }

// Close tears the channel down locally.
func (s *Session) Close() error { return s.conn.Close() }
