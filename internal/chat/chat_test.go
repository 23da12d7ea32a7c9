package chat

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wstalk/internal/console"
	werrors "wstalk/internal/errors"
	"wstalk/internal/interrupt"
	"wstalk/internal/session"
	"wstalk/util"
)

// ── test doubles ─────────────────────────────────────────────────────

// fakeConn scripts a transport.Conn for loop tests.  Like the real
// transport, its open flag flips when a loop observes the closure,
// not when the peer goes away.
type fakeConn struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
	open   atomic.Bool
	reason string
}

func newFakeConn(reason string) *fakeConn {
	f := &fakeConn{
		in:     make(chan string, 8),
		out:    make(chan string, 8),
		closed: make(chan struct{}),
		reason: reason,
	}
	f.open.Store(true)
	return f
}

// shutdown simulates the peer ending the session.
func (f *fakeConn) shutdown() {
	f.once.Do(func() { close(f.closed) })
}

func (f *fakeConn) Receive() (string, error) {
	// Drain queued messages before reporting closure, so scripted
	// traffic is always observed in order.
	select {
	case m := <-f.in:
		return m, nil
	default:
	}
	select {
	case m := <-f.in:
		return m, nil
	case <-f.closed:
		f.open.Store(false)
		return "", werrors.Closed(f.reason, nil)
	}
}

func (f *fakeConn) Send(m string) error {
	select {
	case <-f.closed:
		f.open.Store(false)
		return werrors.Closed(f.reason, nil)
	default:
	}
	f.out <- m
	return nil
}

func (f *fakeConn) Open() bool { return f.open.Load() }

func (f *fakeConn) CloseReason() string {
	if f.open.Load() {
		return ""
	}
	return f.reason
}

func (f *fakeConn) Close() error {
	f.shutdown()
	f.open.Store(false)
	return nil
}

// faultConn fails every push with an error that carries no closure.
type faultConn struct{ *fakeConn }

func (f *faultConn) Send(string) error { return io.ErrShortWrite }

// syncBuffer is a goroutine-safe bytes.Buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// gateReader blocks every Read until the gate channel is closed.
type gateReader struct {
	gate <-chan struct{}
	r    io.Reader
}

func (g *gateReader) Read(p []byte) (int, error) {
	<-g.gate
	return g.r.Read(p)
}

// harness bundles a Chat over a fake connection.
type harness struct {
	conn *fakeConn
	chat *Chat
	out  *syncBuffer
	sess *session.Session
}

func newHarness(reason, input string) *harness {
	conn := newFakeConn(reason)
	out := &syncBuffer{}
	logger := util.NewLogger(0)
	return &harness{
		conn: conn,
		chat: New(console.New(strings.NewReader(input), out), interrupt.New(), logger),
		out:  out,
		sess: session.New(conn, nil, logger),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// ── scenarios ────────────────────────────────────────────────────────

// TestRun_PrintsMessagesThenClosureNotice: the peer delivers a message
// and closes; both loops unwind without any operator action.
func TestRun_PrintsMessagesThenClosureNotice(t *testing.T) {
	h := newHarness("peer disconnected", "")
	h.conn.in <- "hello"
	h.conn.shutdown()

	if err := h.chat.Run(h.sess); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := h.out.String()
	if !strings.Contains(got, "Recv: hello") {
		t.Errorf("missing received message in %q", got)
	}
	if !strings.Contains(got, "Connection was closed: peer disconnected") {
		t.Errorf("missing closure notice in %q", got)
	}
	if strings.Index(got, "Recv: hello") > strings.Index(got, "Connection was closed") {
		t.Errorf("closure notice printed before the message: %q", got)
	}
	if n := strings.Count(got, "Connection was closed"); n != 1 {
		t.Errorf("closure notice printed %d times, want 1", n)
	}
	if strings.Contains(got, "Send: ") {
		t.Errorf("a prompt was issued without an interrupt: %q", got)
	}
}

// TestRun_InterruptPromptsAndSends: the operator interrupts, types a
// line, and the line goes out exactly once.
func TestRun_InterruptPromptsAndSends(t *testing.T) {
	h := newHarness("bye", "ping\n")

	done := make(chan error, 1)
	go func() { done <- h.chat.Run(h.sess) }()

	h.chat.Latch.Set() // operator interrupt

	select {
	case msg := <-h.conn.out:
		if msg != "ping" {
			t.Errorf("sent %q, want %q", msg, "ping")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no outbound message after interrupt")
	}

	h.conn.shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not finish after closure")
	}

	if h.chat.Latch.IsSet() {
		t.Error("latch should be inactive after the session ends")
	}
	if !strings.Contains(h.out.String(), "Send: ") {
		t.Error("compose prompt never shown")
	}
	select {
	case extra := <-h.conn.out:
		t.Errorf("unexpected extra outbound message %q", extra)
	default:
	}
}

// TestRun_DoubleInterruptSinglePrompt: two interrupts in quick
// succession collapse into one prompt cycle.  A second cycle would
// exhaust stdin and fail the run, so the success path is the proof.
func TestRun_DoubleInterruptSinglePrompt(t *testing.T) {
	h := newHarness("bye", "one\n")

	h.chat.Latch.Set()
	h.chat.Latch.Set() // absorbed by the idempotent set

	done := make(chan error, 1)
	go func() { done <- h.chat.Run(h.sess) }()

	select {
	case msg := <-h.conn.out:
		if msg != "one" {
			t.Errorf("sent %q, want %q", msg, "one")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no outbound message after interrupts")
	}

	h.conn.shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v (a second prompt cycle ran)", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not finish after closure")
	}

	if n := strings.Count(h.out.String(), "Send: "); n != 1 {
		t.Errorf("prompt cycles = %d, want 1", n)
	}
}

// TestRun_ClosureWhileWaitingNoPrompt: the channel dies while the send
// loop is parked on the latch; it must unwind without prompting.
func TestRun_ClosureWhileWaitingNoPrompt(t *testing.T) {
	h := newHarness("peer disconnected", "should never be read\n")

	done := make(chan error, 1)
	go func() { done <- h.chat.Run(h.sess) }()

	time.Sleep(20 * time.Millisecond) // let both loops park
	h.conn.shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send loop stranded after closure")
	}

	if strings.Contains(h.out.String(), "Send: ") {
		t.Error("prompt issued after closure")
	}
	select {
	case msg := <-h.conn.out:
		t.Errorf("unexpected outbound message %q", msg)
	default:
	}
}

// TestRun_ClosureDuringCompose: the channel dies while the operator is
// mid-compose.  The check-then-act ordering means the send is still
// attempted and fails with a printed notice.
func TestRun_ClosureDuringCompose(t *testing.T) {
	conn := newFakeConn("peer disconnected")
	gate := make(chan struct{})
	out := &syncBuffer{}
	logger := util.NewLogger(0)
	c := New(console.New(&gateReader{gate: gate, r: strings.NewReader("late\n")}, out),
		interrupt.New(), logger)
	sess := session.New(conn, nil, logger)

	done := make(chan error, 1)
	go func() { done <- c.Run(sess) }()

	c.Latch.Set()

	// The prompt on screen means the send loop holds the arbiter and
	// is blocked reading the line.
	waitFor(t, func() bool { return strings.Contains(out.String(), "Send: ") })

	conn.shutdown() // channel dies mid-compose
	close(gate)     // operator finishes the line

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not finish")
	}

	if !strings.Contains(out.String(), "Connection was closed: peer disconnected") {
		t.Errorf("missing closure notice in %q", out.String())
	}
	select {
	case msg := <-conn.out:
		t.Errorf("message %q sent on a dead channel", msg)
	default:
	}
}

// TestRun_InputFailureClosesSession: stdin ends while the channel is
// still open.  The fatal read error must surface from Run, which means
// the receive loop, parked on the open channel, has to be unblocked by
// tearing the session down.
func TestRun_InputFailureClosesSession(t *testing.T) {
	h := newHarness("", "") // empty stdin, the first prompt hits EOF

	h.chat.Latch.Set()

	done := make(chan error, 1)
	go func() { done <- h.chat.Run(h.sess) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run returned nil, want an input error")
		}
		if !strings.Contains(err.Error(), "reading input") {
			t.Errorf("error = %v, want an input read failure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run stranded after input failure")
	}

	if h.conn.Open() {
		t.Error("session left open after fatal input failure")
	}
}

// TestRun_UnexplainedSendErrorIsFatal: a push failure that carries no
// closure aborts the run instead of printing a notice.
func TestRun_UnexplainedSendErrorIsFatal(t *testing.T) {
	conn := &faultConn{newFakeConn("")}
	out := &syncBuffer{}
	logger := util.NewLogger(0)
	c := New(console.New(strings.NewReader("hello\n"), out), interrupt.New(), logger)
	sess := session.New(conn, nil, logger)

	c.Latch.Set()

	done := make(chan error, 1)
	go func() { done <- c.Run(sess) }()

	select {
	case err := <-done:
		if !werrors.Is(err, io.ErrShortWrite) {
			t.Fatalf("Run = %v, want wrapped %v", err, io.ErrShortWrite)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run stranded after send failure")
	}

	if conn.Open() {
		t.Error("session left open after fatal send failure")
	}
	if strings.Contains(out.String(), "Connection was closed: "+io.ErrShortWrite.Error()) {
		t.Error("send failure reported as a peer closure")
	}
}

// TestRun_InterruptDoesNotDropMessages: messages arriving around an
// interrupt are all printed once the arbiter frees up.
func TestRun_InterruptDoesNotDropMessages(t *testing.T) {
	h := newHarness("bye", "reply\n")

	done := make(chan error, 1)
	go func() { done <- h.chat.Run(h.sess) }()

	h.conn.in <- "first"
	waitFor(t, func() bool { return strings.Contains(h.out.String(), "Recv: first") })

	h.chat.Latch.Set()
	select {
	case <-h.conn.out:
	case <-time.After(2 * time.Second):
		t.Fatal("compose cycle never completed")
	}

	h.conn.in <- "second"
	waitFor(t, func() bool { return strings.Contains(h.out.String(), "Recv: second") })

	h.conn.shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not finish after closure")
	}
}
