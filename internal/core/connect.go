package core

import (
	"context"
	"os"
	"os/signal"

	"wstalk/internal/chat"
	"wstalk/internal/metrics"
	"wstalk/internal/session"
	"wstalk/internal/transport"
	"wstalk/util"
)

// ConnectMode dials the endpoint and runs the interactive session on
// the resulting channel. It is the only operational mode.
type ConnectMode struct {
	Dialer transport.Dialer
	Chat   *chat.Chat
	URL    string
	Logger *util.Logger
	Stats  *metrics.Collector

	// Signals overrides the interrupt source in tests.  Nil means the
	// process SIGINT stream.
	Signals <-chan os.Signal
}

// Run dials the endpoint, wires the interrupt stream to the latch,
// and hands the session to the chat supervisor.  It returns once the
// channel has closed and both traffic loops have stopped.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s", m.URL)

	conn, err := m.Dialer.Dial(ctx, m.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	m.Chat.Console.Printf("Connected to %s.", m.URL)

	// Subscribe to the operator interrupt exactly once.  Each delivery
	// arms the latch; the send loop does the rest.
	sigCh := m.Signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		defer signal.Stop(ch)
		sigCh = ch
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigCh:
				m.Chat.Latch.Set()
			case <-done:
				return
			}
		}
	}()

	sess := session.New(conn, m.Stats, m.Logger)
	err = m.Chat.Run(sess)

	m.Logger.Debug("session stats: %s", m.Stats.JSON())
	return err
}
