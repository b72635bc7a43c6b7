// Package flagx lets several components share os.Args: each one filters
// out the flags it owns and parses only those.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the arguments in args that belong to allowedFlags,
// together with their values.
//
// Both "-flag value" and "-flag=value" forms are recognized. A value is
// taken from the next argument only when it does not itself start with
// "-". The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigPath returns the configuration file named by -c or -config in
// os.Args, or "" when neither is present. The last occurrence wins.
func ConfigPath() string {
	return configPath(os.Args[1:])
}

func configPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
