// Package config loads runtime configuration for the SecureBank CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: a dotenv file (".env" by default, or -e/-env) is loaded
//     into the process environment, then SECUREBANK_* variables are read.
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the banking API
//	-t int      request timeout (seconds)
//	-p string   password policy when the encryption key is unavailable: strict | fallback
//	-s string   session storage backend: memory | sqlite
//	-l string   log level: debug | info | warn | error
//	-u int      customer id used by the accounts command
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://bank.example/api",
//	  "request_timeout": "10s",
//	  "password_policy": "strict",
//	  "session_storage": "sqlite",
//	  "session_dsn": ":memory:",
//	  "log_level": "info",
//	  "customer_id": 42
//	}
package config
