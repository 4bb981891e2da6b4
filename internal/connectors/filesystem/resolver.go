package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath converts a user-supplied location to a local path.
// Handles file:// URIs and a leading "~/"; other paths pass through unchanged.
func ResolvePath(uri string) string {
	path := strings.TrimPrefix(uri, "file://")

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
