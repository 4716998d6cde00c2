package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

const (
	// ConfigKeyAPIKey prefer the environment variable EnvKeyAPIKey. Without a key, no video links are suggested.
	ConfigKeyAPIKey = "youtubeAPIKey"
	EnvKeyAPIKey    = "SNAP2RECIPE_YOUTUBE_API_KEY"
)

var ErrNoAPIKey = errors.New("no YouTube API key")

// VideoFinder suggests a cooking video for a dish.
type VideoFinder struct {
	service *youtube.Service
}

func NewVideoFinder(ctx context.Context, config *common.Config, opts ...option.ClientOption) (*VideoFinder, error) {
	apiKey := config.GetSecret(ConfigKeyAPIKey, EnvKeyAPIKey)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &VideoFinder{service: service}, nil
}

// FindVideo returns the URL of the most relevant video, or an empty string if nothing was found.
func (v *VideoFinder) FindVideo(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", nil
	}
	response, err := v.service.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(5).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	for _, item := range response.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			return fmt.Sprintf("https://youtube.com/watch?v=%s", item.Id.VideoId), nil
		}
	}
	return "", nil
}
