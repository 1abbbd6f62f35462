package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/securebank/internal/flagx"
	"github.com/joho/godotenv"
)

const (
	EnvAPIURL         = "SECUREBANK_API_URL"
	EnvRequestTimeout = "SECUREBANK_REQUEST_TIMEOUT"
	EnvPasswordPolicy = "SECUREBANK_PASSWORD_POLICY"
	EnvSessionStorage = "SECUREBANK_SESSION_STORAGE"
	EnvSessionDSN     = "SECUREBANK_SESSION_DSN"
	EnvLogLevel       = "SECUREBANK_LOG_LEVEL"
	EnvCustomerID     = "SECUREBANK_CUSTOMER_ID"
)

const defaultEnvFile = ".env"

// parseEnv loads the dotenv file (an explicitly requested file must exist,
// the default ".env" is optional) and overlays SECUREBANK_* variables.
// Variables already present in the environment win over the file.
func parseEnv(cfg *Config, args []string) error {
	envFile := flagx.EnvFilePath(args)
	path := envFile
	if path == "" {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv(EnvRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := os.LookupEnv(EnvPasswordPolicy); ok && v != "" {
		cfg.PasswordPolicy = v
	}
	if v, ok := os.LookupEnv(EnvSessionStorage); ok && v != "" {
		cfg.SessionStorage = v
	}
	if v, ok := os.LookupEnv(EnvSessionDSN); ok && v != "" {
		cfg.SessionDSN = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvCustomerID); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCustomerID, err)
		}
		cfg.CustomerID = id
	}
	return nil
}
