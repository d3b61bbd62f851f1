package utils

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Slugify converts a title into a URL-safe lowercase identifier. Runs of
// non-alphanumeric characters collapse into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// keep non-latin letters, browsers handle them fine in paths
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	s := strings.Trim(b.String(), "-")
	if len(s) > maxSlugLen {
		// cut on a rune boundary so multibyte letters stay intact
		cut := maxSlugLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.Trim(s[:cut], "-")
	}
	return s
}

const maxSlugLen = 140

// SlugCandidate returns the attempt-th candidate for a base slug: the base
// itself first, then base-1, base-2, and so on. Past maxSlugAttempts the
// caller gets a random suffix so a pathological collision run still
// terminates.
func SlugCandidate(base string, attempt int) string {
	if base == "" {
		base = "thread"
	}
	if attempt <= 0 {
		return base
	}
	if attempt > maxSlugAttempts {
		return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}

const maxSlugAttempts = 50
