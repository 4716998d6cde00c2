package web

import (
	"strings"

	"github.com/mvdan/xurls"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
)

type URLFinder struct{}

func NewURLFinder() *URLFinder {
	return &URLFinder{}
}

// FindURLs returns all web links in the text. Links without a scheme ("example.com/pasta.jpg") get "https://".
func (u *URLFinder) FindURLs(str string) []string {
	found := xurls.Relaxed.FindAllString(str, -1)
	result := make([]string, 0, len(found))
	for _, candidate := range found {
		if strings.Contains(candidate, "@") && !strings.Contains(candidate, "/") {
			continue // an email address
		}
		lower := strings.ToLower(candidate)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			if strings.Contains(lower, "://") {
				continue
			}
			candidate = "https://" + candidate
		}
		result = append(result, candidate)
	}
	return result
}

// FindImageReference picks the photo a chat message refers to: a direct image link if there's one, otherwise the
// first link (it may be a photo page with a preview image).
func (u *URLFinder) FindImageReference(str string) (domain.ImageReference, bool) {
	urls := u.FindURLs(str)
	if len(urls) == 0 {
		return domain.ImageReference{}, false
	}
	for _, candidate := range urls {
		if common.IsImageFormat(candidate) {
			return domain.NewImageReference(candidate), true
		}
	}
	return domain.NewImageReference(urls[0]), true
}
