package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	PolicyStrict   = "strict"
	PolicyFallback = "fallback"

	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config holds runtime settings for the SecureBank CLI.
type Config struct {
	// APIBaseURL is prefixed to every endpoint path, e.g. "http://localhost:3001/api".
	APIBaseURL string
	// RequestTimeout bounds every outbound call; expiry is a transport failure.
	RequestTimeout time.Duration
	// PasswordPolicy decides what happens when the public key is unavailable.
	PasswordPolicy string
	SessionStorage string
	SessionDSN     string
	LogLevel       string
	CustomerID     int64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:3001/api"
	c.RequestTimeout = 10 * time.Second
	c.PasswordPolicy = PolicyStrict
	c.SessionStorage = StorageMemory
	c.SessionDSN = ":memory:"
	c.LogLevel = "info"
	c.CustomerID = 0
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q: absolute http(s) url required", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout %s", c.RequestTimeout)
	}
	switch c.PasswordPolicy {
	case PolicyStrict, PolicyFallback:
	default:
		return fmt.Errorf("invalid password policy %q", c.PasswordPolicy)
	}
	switch c.SessionStorage {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("invalid session storage %q", c.SessionStorage)
	}
	return nil
}

// LoadConfig constructs a Config from defaults, environment, JSON file and
// flags (args excludes the program name). Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, args); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
