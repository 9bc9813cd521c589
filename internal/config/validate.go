package config

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.PasswordHashCost < bcrypt.MinCost || c.Auth.PasswordHashCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.password_hash_cost must be between %d and %d (got %d)",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.PasswordHashCost)
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0 (got %v)", c.Server.RequestTimeout)
	}

	if err := c.Mail.validate(); err != nil {
		return fmt.Errorf("mail: %w", err)
	}

	if err := c.Notify.validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	return nil
}

func (m *MailConfig) validate() error {
	switch strings.ToLower(m.Driver) {
	case "log":
		return nil
	case "smtp":
	default:
		return fmt.Errorf("driver must be one of smtp, log (got %q)", m.Driver)
	}

	if m.Host == "" {
		return fmt.Errorf("host is required for the smtp driver")
	}
	if m.Port <= 0 || m.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", m.Port)
	}
	if m.From == "" {
		return fmt.Errorf("from is required for the smtp driver")
	}
	switch strings.ToLower(m.TLS) {
	case "mandatory", "opportunistic", "none":
	default:
		return fmt.Errorf("tls must be one of mandatory, opportunistic, none (got %q)", m.TLS)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be > 0 (got %v)", n.PollInterval)
	}
	if n.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", n.BatchSize)
	}
	if n.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be > 0 (got %d)", n.MaxAttempts)
	}
	if n.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0 (got %d)", n.Concurrency)
	}
	return nil
}
