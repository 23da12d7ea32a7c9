// Package cmd wires up the CLI flags and dispatches to the client core.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"wstalk/config"
	"wstalk/internal/chat"
	"wstalk/internal/console"
	"wstalk/internal/core"
	"wstalk/internal/interrupt"
	"wstalk/internal/metrics"
	"wstalk/internal/transport"
	"wstalk/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X wstalk/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the interactive client.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{Timeout: config.DefaultConnTimeout}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("wstalk", flag.ContinueOnError)

	// ── TLS ──────────────────────────────────────────────────────
	fs.StringVarP(&cfg.CACertPath, "cacert", "c", cfg.CACertPath, "Trust-anchor PEM for the server certificate")
	fs.StringVar(&cfg.KeylogPath, "keylog", cfg.KeylogPath, "Write TLS session keys to file (debugging)")
	fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Skip server certificate verification")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Handshake timeout in seconds")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("wstalk %s\n", version)
		return nil
	}

	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	// ── positional arguments ─────────────────────────────────────
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		cfg.URL = rest[0]
	default:
		return fmt.Errorf("too many arguments (one endpoint URL expected)")
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	endpoint, _ := config.ParseEndpoint(cfg.URL) // already validated
	if endpoint.Scheme == "ws" {
		logger.Warn("plaintext ws:// endpoint, traffic is not encrypted")
	}

	tlsConf, err := transport.TLSConfig(cfg.CACertPath, cfg.KeylogPath, cfg.Insecure)
	if err != nil {
		return err
	}

	dialer := &transport.WSDialer{
		TLS:              tlsConf,
		HandshakeTimeout: cfg.Timeout,
	}

	if cfg.TunnelEnabled {
		tun := transport.NewSSHTunnel(&transport.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)

		logger.Verbose("establishing SSH tunnel to %s@%s:%d",
			cfg.TunnelUser, cfg.TunnelHost, cfg.TunnelPort)
		if err := tun.Connect(ctx); err != nil {
			return err
		}
		defer tun.Close()
		logger.Verbose("SSH tunnel established")

		dialer.NetDial = tun.DialContext
	}

	cons := console.New(os.Stdin, os.Stdout)
	if !cons.Interactive() {
		logger.Verbose("stdin is not a terminal")
	}

	var mode core.Mode = &core.ConnectMode{
		Dialer: dialer,
		Chat:   chat.New(cons, interrupt.New(), logger),
		URL:    cfg.URL,
		Logger: logger,
		Stats:  metrics.New(),
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `wstalk – Interactive WebSocket Terminal Client v%s

Connects to a WebSocket server and prints every received message.
Press Ctrl+C to compose a message; it is sent when you hit Enter.
The client exits once the server closes the connection.

Usage:
  wstalk [options] <url>                          Connect
  wstalk -c cert.pem wss://localhost:8443/        Self-signed server
  wstalk -T user@bastion wss://internal:8443/     Via SSH tunnel

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  WSTALK_URL, WSTALK_CACERT, WSTALK_KEYLOG, WSTALK_INSECURE,
  WSTALK_TIMEOUT, WSTALK_TUNNEL, WSTALK_SSH_KEY, WSTALK_VERBOSE, ...
  (flags take precedence)
`)
}
