// Package sanitize derives filesystem-safe names from scraped video titles,
// which routinely carry path separators, emoji and Windows-reserved
// punctuation.
package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxFilenameLength is the maximum allowed length for the filename base.
	MaxFilenameLength = 120
	// DefaultExt is the default extension used when none is provided.
	DefaultExt = "mp4"
	// DefaultName is the replacement name when the title is empty.
	DefaultName = "video"
)

var (
	unsafeChars   = regexp.MustCompile(`[\\/:*?"<>|]+`)
	controlChars  = regexp.MustCompile("[\x00-\x1f\x7f]+")
	underscoreRun = regexp.MustCompile(`_{2,}`)
)

// ToSafeFilename builds a cross-platform safe filename from a title and an
// extension (given without the dot). Unsafe and control characters collapse
// to single underscores; the base is truncated on rune boundaries so a
// multi-byte title never ends up split mid-character.
func ToSafeFilename(title, ext string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = DefaultName
	}
	name = controlChars.ReplaceAllString(name, "_")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = underscoreRun.ReplaceAllString(name, "_")
	if runes := []rune(name); len(runes) > MaxFilenameLength {
		name = string(runes[:MaxFilenameLength])
	}
	// Windows rejects names ending in dots or spaces.
	name = strings.TrimRight(name, ". ")
	if name == "" {
		name = DefaultName
	}

	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Clean(name + "." + ext)
}
