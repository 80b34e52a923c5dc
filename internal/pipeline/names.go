package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
)

// Blob filenames are derived from the URL: a role prefix plus a sha256
// digest of the URL string, with a fixed .jpg extension. The digest
// makes filename collisions between distinct URLs practically
// impossible.

func OriginBlobName(url string) string {
	return "origin_" + hashURL(url) + ".jpg"
}

func PreviewBlobName(url string) string {
	return "preview_" + hashURL(url) + ".jpg"
}

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
