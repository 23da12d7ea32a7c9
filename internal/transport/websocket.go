package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	werrors "wstalk/internal/errors"
)

// closeGracePeriod bounds how long a local Close waits for the close
// frame to be written before tearing the socket down.
const closeGracePeriod = time.Second

// WSDialer dials WebSocket endpoints, optionally over TLS and
// optionally through a custom stream dialer such as an SSH tunnel.
type WSDialer struct {
	// TLS is the client TLS configuration for wss:// endpoints.
	// Nil means library defaults (system trust store).
	TLS *tls.Config

	// HandshakeTimeout bounds the dial plus upgrade.  Zero means no
	// limit.
	HandshakeTimeout time.Duration

	// NetDial overrides the underlying TCP dial, e.g. to route the
	// stream through an SSH tunnel.  Nil means a direct dial.
	NetDial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Dial performs the WebSocket handshake against url and returns the
// open message channel.
func (d *WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	wd := websocket.Dialer{
		TLSClientConfig:  d.TLS,
		HandshakeTimeout: d.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if d.NetDial != nil {
		wd.NetDialContext = d.NetDial
	}

	ws, resp, err := wd.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, werrors.Wrap("dial", url, err)
	}
	return newWSConn(ws), nil
}

// Close is a no-op; the dialer holds no long-lived resources.
func (d *WSDialer) Close() error { return nil }

// TLSConfig builds a tls.Config from a trust-anchor PEM bundle and an
// optional TLS key-log path.  An empty caCertPath keeps the system
// trust store.  The key-log file stays open for the process lifetime.
func TLSConfig(caCertPath, keylogPath string, insecure bool) (*tls.Config, error) {
	cfg := &tls.Config{InsecureSkipVerify: insecure} //nolint:gosec // explicit --insecure opt-in

	if caCertPath != "" {
		pem, err := os.ReadFile(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("reading trust anchor: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", caCertPath)
		}
		cfg.RootCAs = pool
	}

	if keylogPath != "" {
		f, err := os.OpenFile(keylogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening key log: %w", err)
		}
		cfg.KeyLogWriter = f
	}

	return cfg, nil
}

// ── Connection ───────────────────────────────────────────────────────

// wsConn adapts a *websocket.Conn to the Conn interface, tracking the
// open/closed state that both traffic loops read.
type wsConn struct {
	ws *websocket.Conn

	open   atomic.Bool
	once   sync.Once
	reason atomic.Value // string
}

func newWSConn(ws *websocket.Conn) *wsConn {
	c := &wsConn{ws: ws}
	c.open.Store(true)
	c.reason.Store("")
	return c
}

// Open reports whether the channel can still carry messages.
func (c *wsConn) Open() bool { return c.open.Load() }

// CloseReason returns the close reason supplied by the peer, if any.
func (c *wsConn) CloseReason() string { return c.reason.Load().(string) }

// Receive blocks for the next text message from the peer.
func (c *wsConn) Receive() (string, error) {
	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			return "", c.closed(err)
		}
		if typ != websocket.TextMessage {
			continue // the protocol is text only, skip other frames
		}
		return string(data), nil
	}
}

// Send pushes one text message to the peer.
func (c *wsConn) Send(message string) error {
	if !c.open.Load() {
		return werrors.Closed(c.CloseReason(), nil)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return c.closed(err)
	}
	return nil
}

// Close sends a best-effort close frame and tears the socket down.
func (c *wsConn) Close() error {
	c.once.Do(func() { c.open.Store(false) })
	deadline := time.Now().Add(closeGracePeriod)
	c.ws.WriteControl(websocket.CloseMessage, //nolint:errcheck
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}

// closed records the first closure observed from either direction and
// converts err into a ClosedError.  The open flag flips exactly once.
func (c *wsConn) closed(err error) error {
	c.once.Do(func() {
		var ce *websocket.CloseError
		if werrors.As(err, &ce) && ce.Text != "" {
			c.reason.Store(ce.Text)
		}
		c.open.Store(false)
	})
	return werrors.Closed(c.CloseReason(), err)
}
