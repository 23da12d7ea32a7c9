package chat

import (
	"fmt"

	werrors "wstalk/internal/errors"
	"wstalk/internal/session"
)

// send waits for compose intent, prompts for one line, and pushes it
// to the peer.
//
// The open-check deliberately happens before the line read, never
// after: a closure racing the composition surfaces as a failed send
// with a printed notice, which is the documented behaviour.
func (c *Chat) send(sess *session.Session) error {
	for sess.Open() {
		c.Latch.Wait()

		// The latch may have been armed by the receive loop observing
		// closure rather than by the operator. Never prompt then.
		if sess.Open() {
			line, err := c.Console.ReadLine("Send: ")
			if err != nil {
				c.Latch.Clear()
				return fmt.Errorf("reading input: %w", err)
			}
			if err := sess.Send(line); err != nil {
				if !werrors.IsClosed(err) {
					c.Latch.Clear()
					return fmt.Errorf("sending message: %w", err)
				}
				c.notifyClosed(err)
			}
		}

		// Re-arm on every pass.  Interrupts that fired while this
		// cycle was composing are absorbed here, so N queued signals
		// never become N prompts.
		c.Latch.Clear()
	}
	return nil
}
