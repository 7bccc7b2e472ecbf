package shared

import (
	"strings"
	"unicode"
)

// invalidFilenameChars are stripped from filenames: these are the characters
// rejected by at least one of the filesystems the output may land on.
const invalidFilenameChars = `<>:"/\|?*`

// SanitizeFilename maps an arbitrary display string to a safe path segment:
// invalid characters removed, whitespace runs collapsed to a single space,
// leading/trailing whitespace trimmed, and the result truncated to maxLength
// runes. Idempotent; empty input yields empty output.
func SanitizeFilename(raw string, maxLength int) string {
	var b strings.Builder
	b.Grow(len(raw))

	lastSpace := true // collapses leading whitespace too
	for _, r := range raw {
		if strings.ContainsRune(invalidFilenameChars, r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	s := strings.TrimSpace(b.String())

	if maxLength > 0 {
		runes := []rune(s)
		if len(runes) > maxLength {
			s = strings.TrimSpace(string(runes[:maxLength]))
		}
	}

	return s
}

// NormalizeTrackKey produces a case- and whitespace-insensitive key for
// comparing tracks by title and artist.
func NormalizeTrackKey(title, artist string) string {
	normalize := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return normalize(title) + "|" + normalize(artist)
}
