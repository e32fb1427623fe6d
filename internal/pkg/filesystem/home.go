package filesystem

import (
	"os"
	"path/filepath"
)

// ConfigDirName is the per-user directory holding config, rules and the
// feedback database.
const ConfigDirName = ".nixsay"

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// ConfigDir returns ~/.nixsay for the given home directory.
func ConfigDir(home string) string {
	return filepath.Join(home, ConfigDirName)
}
