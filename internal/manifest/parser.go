// Package manifest retrieves and parses the remote newline-delimited
// list of candidate image URLs.
package manifest

import (
	"net/url"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ParseURLs extracts candidate image URLs from raw manifest text: one
// URL per line, blanks dropped, each surviving line checked against the
// image-URL predicate. It is a total function; malformed input just
// yields an empty result.
func ParseURLs(raw string) []string {
	lines := strings.Split(raw, "\n")
	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isImageURL(trimmed) {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// isImageURL accepts absolute http/https URLs that look like images:
// a known extension on the path, or "image" appearing in the path or in
// the full URL string. A heuristic, not a content-type check; it is
// deliberately permissive and admits false positives.
func isImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	if strings.Contains(path, "image") {
		return true
	}
	return strings.Contains(strings.ToLower(raw), "image")
}
