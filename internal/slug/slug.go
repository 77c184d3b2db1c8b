// Package slug provides URL-safe slug derivation for pages and tenant ids.
package slug

import "strings"

// ID derives a URL-safe identifier from free text: lowercased, runs of
// non-alphanumeric characters collapsed to a single "-", trimmed of leading
// and trailing "-".
func ID(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingDash := false
	for _, r := range strings.ToLower(text) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			if b.Len() > 0 {
				pendingDash = true
			}
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Make derives a page slug from a title. Page slugs are always
// tenant-relative paths starting with "/".
func Make(title string) string {
	return "/" + ID(title)
}

// Normalize ensures a caller-supplied slug starts with "/".
func Normalize(s string) string {
	if strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}
