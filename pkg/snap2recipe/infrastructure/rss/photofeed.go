package rss

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/web"
)

const (
	// ConfigKeyFeedURL an RSS feed where every item is a photo (an image enclosure, a media:content tag, or an image
	// link in the item).
	ConfigKeyFeedURL = "feedURL"
	// ConfigKeyFeedMaxItems how many of the newest items to take.
	ConfigKeyFeedMaxItems = "feedMaxItems"
)

const maxFeedSize = 10 * 1024 * 1024

var ErrNoFeedURL = errors.New("the feed URL is not configured")

// Photo one submission found in the feed.
type Photo struct {
	Title     string
	Reference domain.ImageReference
}

type PhotoFeed struct {
	url       string
	maxItems  int
	client    *http.Client
	urlFinder *web.URLFinder
}

func NewPhotoFeed(httpClient *http.Client, urlFinder *web.URLFinder, config *common.Config) (*PhotoFeed, error) {
	url := config.GetString(ConfigKeyFeedURL)
	if url == "" {
		return nil, ErrNoFeedURL
	}
	return &PhotoFeed{
		url:       url,
		maxItems:  config.GetIntOrDefault(ConfigKeyFeedMaxItems, 10),
		client:    httpClient,
		urlFinder: urlFinder,
	}, nil
}

// GetPhotos returns photos in feed order; items without a recognizable image are skipped. Only http(s) references
// are taken, never local paths.
func (p *PhotoFeed) GetPhotos(ctx context.Context) ([]Photo, error) {
	response, err := common.ReadAllFromURL(ctx, p.client, p.url, maxFeedSize, nil)
	if err != nil {
		return nil, err
	}
	parser := rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(response.Body))
	if err != nil {
		return nil, err
	}
	result := make([]Photo, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(result) >= p.maxItems {
			break
		}
		imageURL := p.findImageURL(item)
		if imageURL == "" {
			continue
		}
		result = append(result, Photo{
			Title:     strings.TrimSpace(item.Title),
			Reference: domain.NewImageReference(imageURL),
		})
	}
	return result, nil
}

func (p *PhotoFeed) findImageURL(item *rss.Item) string {
	if item.Enclosure != nil && isRemote(item.Enclosure.URL) &&
		(strings.HasPrefix(item.Enclosure.Type, "image/") || common.IsImageFormat(item.Enclosure.URL)) {
		return item.Enclosure.URL
	}
	if url := findMediaURL(item.Extensions); url != "" {
		return url
	}
	for _, text := range []string{item.Link, item.Description} {
		for _, url := range p.urlFinder.FindURLs(text) {
			if isRemote(url) && common.IsImageFormat(url) {
				return url
			}
		}
	}
	return ""
}

func isRemote(url string) bool {
	return domain.NewImageReference(url).IsURL()
}

// findMediaURL looks at Media RSS tags (<media:content>, <media:thumbnail>).
func findMediaURL(extensions ext.Extensions) string {
	media, ok := extensions["media"]
	if !ok {
		return ""
	}
	for _, name := range []string{"content", "thumbnail"} {
		for _, extension := range media[name] {
			medium := extension.Attrs["medium"]
			url := extension.Attrs["url"]
			if isRemote(url) && (medium == "" || medium == "image") {
				return url
			}
		}
	}
	return ""
}
