package normalisers

import (
	"path/filepath"
	"strings"
)

// Decode converts raw bytes to text with LF line endings.
// A UTF-8 byte order mark is dropped and invalid sequences become U+FFFD.
func Decode(content []byte) string {
	text := strings.TrimPrefix(string(content), "\ufeff")
	text = strings.ToValidUTF8(text, "\uFFFD")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// TitleFromPath derives a display name from a file path:
// the base name without extension, underscores and dashes as spaces.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}
