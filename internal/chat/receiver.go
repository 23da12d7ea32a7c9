package chat

import "wstalk/internal/session"

// receive pulls inbound messages and prints them until the channel
// closes.  It then arms the latch once, because a send loop may still
// be parked waiting for an interrupt that will never come.
func (c *Chat) receive(sess *session.Session) {
	for sess.Open() {
		msg, err := sess.Receive()
		if err != nil {
			// Any receive failure carries closure; the transport has
			// already flipped the open flag, so the loop condition
			// ends the loop on the next pass.
			c.notifyClosed(err)
			continue
		}
		c.Console.Printf("Recv: %s", msg)
	}

	c.Latch.Set()
}
