package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/securebank/internal/flagx"
	"github.com/dmitrijs2005/securebank/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep their previous value.
type JSONConfig struct {
	APIBaseURL     string          `json:"api_base_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	PasswordPolicy string          `json:"password_policy"`
	SessionStorage string          `json:"session_storage"`
	SessionDSN     string          `json:"session_dsn"`
	LogLevel       string          `json:"log_level"`
	CustomerID     *int64          `json:"customer_id"`
}

// parseJSON overlays cfg with the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PasswordPolicy != "" {
		cfg.PasswordPolicy = jc.PasswordPolicy
	}
	if jc.SessionStorage != "" {
		cfg.SessionStorage = jc.SessionStorage
	}
	if jc.SessionDSN != "" {
		cfg.SessionDSN = jc.SessionDSN
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.CustomerID != nil {
		cfg.CustomerID = *jc.CustomerID
	}
	return nil
}
