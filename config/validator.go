package config

import "fmt"

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("endpoint URL is required (use --help for usage)")
	}
	u, err := ParseEndpoint(c.URL)
	if err != nil {
		return err
	}

	if c.CACertPath != "" && c.Insecure {
		return fmt.Errorf("--cacert and --insecure are mutually exclusive")
	}
	if u.Scheme == "ws" && (c.CACertPath != "" || c.KeylogPath != "" || c.Insecure) {
		return fmt.Errorf("TLS options require a wss:// endpoint")
	}

	if !c.TunnelEnabled {
		if c.SSHKeyPath != "" || c.SSHPassword || c.UseSSHAgent ||
			c.StrictHostKey || c.KnownHostsPath != "" {
			return fmt.Errorf("SSH options require a tunnel (-T user@host)")
		}
	} else if c.TunnelHost == "" {
		return fmt.Errorf("tunnel host is required")
	}

	return nil
}
