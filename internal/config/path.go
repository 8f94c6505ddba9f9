// Package config loads sheetsync settings for the Google clients and the
// transfer pipeline.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a user-supplied credential path. A leading ~ is
// replaced with the home directory and $VAR references are expanded.
// If the home directory cannot be determined the tilde is left as is.
func ExpandPath(p string) string {
	if p == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(p, "~"); ok && (rest == "" || rest[0] == '/') {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, rest)
		}
	}

	return os.ExpandEnv(p)
}
