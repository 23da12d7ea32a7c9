// Package chat runs the two traffic loops of an interactive session:
// one printing inbound messages, one composing outbound ones.
//
// The loops share the terminal through the console arbiter and hand
// compose intent through the interrupt latch.  There is no explicit
// cancellation: the channel closing is what unwinds both loops.
package chat

import (
	"sync"

	"wstalk/internal/console"
	werrors "wstalk/internal/errors"
	"wstalk/internal/interrupt"
	"wstalk/internal/session"
	"wstalk/util"
)

// Chat supervises the receive and send loops over one session.
type Chat struct {
	Console *console.Console
	Latch   *interrupt.Latch
	Logger  *util.Logger
}

// New returns a Chat ready to run a session.
func New(cons *console.Console, latch *interrupt.Latch, logger *util.Logger) *Chat {
	return &Chat{Console: cons, Latch: latch, Logger: logger}
}

// Run starts both loops and blocks until the channel has closed and
// both have unwound.  Closure is normal termination; only a failure
// the session cannot explain (a terminal read error, for instance)
// comes back as an error.
func (c *Chat) Run(sess *session.Session) error {
	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(2)
	go func() {
		defer wg.Done()
		c.receive(sess)
	}()
	go func() {
		defer wg.Done()
		if err := c.send(sess); err != nil {
			errCh <- err
			// The receive loop is still parked on the channel; tear
			// the session down so it unwinds and Run can return.
			sess.Close()
		}
	}()

	wg.Wait()
	close(errCh)
	return <-errCh
}

// notifyClosed prints the closure notice, carrying whatever reason the
// peer supplied.
func (c *Chat) notifyClosed(err error) {
	c.Console.Printf("Connection was closed: %s", werrors.CloseReason(err))
	c.Logger.Debug("closure observed: %v", err)
}
