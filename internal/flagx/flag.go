// Package flagx contains helpers for pre-scanning command-line arguments
// before the main flag set is parsed.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the allowed flags (and their values) from args.
// Both "-c conf.json" and "-config=conf.json" forms are recognized; a value
// is taken from the next argument only if it does not start with a dash.
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFilePath extracts the JSON config file path passed via -c or -config.
// Only these flags are parsed; other arguments are ignored so the caller's
// own flag set is not disturbed. Returns "" when neither flag is present.
func ConfigFilePath(args []string) string {
	return lookupString(args, "config", "c")
}

// EnvFilePath extracts the dotenv file path passed via -e or -env.
// Returns "" when neither flag is present.
func EnvFilePath(args []string) string {
	return lookupString(args, "env", "e")
}

func lookupString(args []string, long, short string) string {
	var value string

	filtered := FilterArgs(args, []string{"-" + short, "-" + long})

	fs := flag.NewFlagSet(long, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&value, long, "", "")
	fs.StringVar(&value, short, "", "")
	_ = fs.Parse(filtered)

	return value
}
