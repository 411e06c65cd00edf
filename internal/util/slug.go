// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	wordSeparatorRe   = regexp.MustCompile(`[\s_/.]+`)
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	multipleDashRe    = regexp.MustCompile(`-+`)
)

// maxSlugLen keeps export filenames well under filesystem limits.
const maxSlugLen = 80

// Slug converts a work title to a filename-safe slug.
//
// Normalization rules:
//  1. Decompose accents and drop the combining marks
//  2. Trim whitespace and lowercase
//  3. Replace spaces, underscores, dots and slashes with dashes
//  4. Remove anything else that is not a-z, 0-9 or a dash
//  5. Collapse and trim dashes, cap the length
//
// Examples:
//
//	"The Long Night"  → "the-long-night"
//	"Café Stories"    → "cafe-stories"
//	"  ¿Qué?  "       → "que"
//	"🐉"              → "untitled"
func Slug(input string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(input) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	s := strings.ToLower(strings.TrimSpace(b.String()))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
