package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
)

const (
	// ConfigKeyMaxImageSize in bytes.
	ConfigKeyMaxImageSize = "maxImageSize"
	// ConfigKeyImageAuthHost the host which serves chat attachments and requires the chat token to download them.
	ConfigKeyImageAuthHost = "imageAuthHost"
	// ConfigKeyChatToken prefer the environment variable EnvKeyChatToken.
	ConfigKeyChatToken = "chatToken"
	EnvKeyChatToken    = "SNAP2RECIPE_CHAT_TOKEN"
)

const DefaultMaxImageSize = 20 * 1024 * 1024

var ErrNoImageOnPage = errors.New("the page has no preview image")

// Meta tags photo-sharing sites use for link previews, in order of preference.
var previewImageSelectors = []string{
	`meta[property="og:image:secure_url"]`,
	`meta[property="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[name="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// ImageSource downloads photos over HTTP(S). If the URL points to an HTML page instead of an image, the page's
// preview image is downloaded (one hop only).
type ImageSource struct {
	client    *http.Client
	maxSize   int64
	authHost  string
	authToken string
}

func NewImageSource(httpClient *http.Client, config *common.Config) *ImageSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ImageSource{
		client:    httpClient,
		maxSize:   int64(config.GetIntOrDefault(ConfigKeyMaxImageSize, DefaultMaxImageSize)),
		authHost:  strings.ToLower(config.GetString(ConfigKeyImageAuthHost)),
		authToken: config.GetSecret(ConfigKeyChatToken, EnvKeyChatToken),
	}
}

func (s *ImageSource) Supports(ref domain.ImageReference) bool {
	return ref.IsURL()
}

func (s *ImageSource) Fetch(ctx context.Context, ref domain.ImageReference) ([]byte, error) {
	response, err := s.get(ctx, ref.Location)
	if err != nil {
		return nil, err
	}
	if !isHTML(response.ContentType) {
		return response.Body, nil
	}
	imageURL, err := findPreviewImage(response.Body, response.FinalURL)
	if err != nil {
		return nil, err
	}
	response, err = s.get(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	if isHTML(response.ContentType) {
		return nil, fmt.Errorf("%w: %s points to another page", ErrNoImageOnPage, imageURL)
	}
	return response.Body, nil
}

func (s *ImageSource) get(ctx context.Context, rawURL string) (*common.HTTPResponse, error) {
	return common.ReadAllFromURL(ctx, s.client, rawURL, s.maxSize, s.headersFor(rawURL))
}

// headersFor sends the token only to the configured host, so it never leaks to arbitrary URLs users post.
func (s *ImageSource) headersFor(rawURL string) map[string]string {
	if s.authHost == "" || s.authToken == "" {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || strings.ToLower(parsed.Hostname()) != s.authHost {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + s.authToken}
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func findPreviewImage(page []byte, pageURL string) (string, error) {
	document, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	for _, selector := range previewImageSelectors {
		content, ok := document.Find(selector).First().Attr("content")
		content = strings.TrimSpace(content)
		if !ok || content == "" {
			continue
		}
		return resolveURL(pageURL, content)
	}
	return "", fmt.Errorf("%w: %s", ErrNoImageOnPage, pageURL)
}

func resolveURL(baseURL, reference string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	resolved, err := base.Parse(reference)
	if err != nil {
		return "", err
	}
	return resolved.String(), nil
}
