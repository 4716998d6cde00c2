package common

import (
	"net/url"
	"path"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// IsImageFormat says whether the URL (or a file path) points to an image judging by its extension.
// The query string and the fragment are ignored, as is the case.
func IsImageFormat(rawURL string) bool {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		p = parsed.Path
	}
	return IsStringInSlice(strings.ToLower(path.Ext(p)), imageExtensions)
}
