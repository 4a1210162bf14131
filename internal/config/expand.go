package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var variableRegexp = regexp.MustCompile(`\$\{(.*?)\}`)

// ExpandPath resolves variables and a leading "~" in a configured path.
// Supported variables:
//   - ${env:VAR}, ${env:VAR:default} (alias ${localEnv:...})
//   - ${home}
//
// Unknown variables are left as-is.
func ExpandPath(p string, env map[string]string) string {
	homeDir := env["HOME"]
	if homeDir == "" {
		homeDir, _ = os.UserHomeDir()
	}

	p = variableRegexp.ReplaceAllStringFunc(p, func(match string) string {
		inner := match[2 : len(match)-1]

		// variable:arg1:arg2
		parts := strings.SplitN(inner, ":", 3)
		switch parts[0] {
		case "home":
			return homeDir
		case "env", "localEnv":
			return lookupEnv(env, parts[1:], match)
		default:
			return match
		}
	})

	switch {
	case p == "~":
		return homeDir
	case strings.HasPrefix(p, "~/"), strings.HasPrefix(p, `~\`):
		return filepath.Join(homeDir, p[2:])
	}
	return p
}

func lookupEnv(env map[string]string, args []string, match string) string {
	if len(args) == 0 {
		return match
	}
	if val, ok := env[args[0]]; ok {
		return val
	}
	if len(args) >= 2 {
		return args[1]
	}
	return ""
}
