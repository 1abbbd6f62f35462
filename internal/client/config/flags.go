package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/securebank/internal/flagx"
)

// parseFlags populates Config fields from the flags it knows about
// (-a, -t, -p, -s, -l, -u). Other arguments, including -c and -e, are
// filtered out with flagx.FilterArgs before parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-p", "-s", "-l", "-u"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the banking API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.PasswordPolicy, "p", cfg.PasswordPolicy, "password policy when the key is unavailable: strict|fallback")
	fs.StringVar(&cfg.SessionStorage, "s", cfg.SessionStorage, "session storage: memory|sqlite")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.Int64Var(&cfg.CustomerID, "u", cfg.CustomerID, "customer id")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
