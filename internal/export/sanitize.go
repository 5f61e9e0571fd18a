package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	DefaultTimelineTitle = "dolly_timeline"

	maxTitleLen = 120
	timelineExt = ".txt"
)

// SanitizeName keeps letters, digits and a few punctuation runes, replacing
// the rest with '_'. An empty result becomes fallback.
func SanitizeName(s string, maxLen int, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// ValidateOutputDir checks that dir is a clean path to an existing directory
// without traversal segments.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("directory is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("directory %q cannot contain path traversal", dir)
		}
	}

	if filepath.Clean(dir) != dir {
		return fmt.Errorf("directory %q must be a clean path", dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory %q does not exist", dir)
		}
		return fmt.Errorf("invalid directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	return nil
}

// TimelinePath validates dir and returns the cue sheet location for title,
// falling back to DefaultTimelineTitle when title sanitizes to nothing.
func TimelinePath(dir, title string) (string, string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", "", err
	}
	name := SanitizeName(title, maxTitleLen, DefaultTimelineTitle)
	return filepath.Join(dir, name+timelineExt), name, nil
}
