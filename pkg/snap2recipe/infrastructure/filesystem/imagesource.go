package filesystem

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/web"
)

// ConfigKeyImageDirectory relative paths are resolved against it. Defaults to the working directory.
const ConfigKeyImageDirectory = "imageDirectory"

// ImageSource reads photos from the local disk (paths or file:// URLs), for local transports like the console.
type ImageSource struct {
	directory string
	maxSize   int64
}

func NewImageSource(config *common.Config) *ImageSource {
	return &ImageSource{
		directory: config.GetStringOrDefault(ConfigKeyImageDirectory, "."),
		maxSize:   int64(config.GetIntOrDefault(web.ConfigKeyMaxImageSize, web.DefaultMaxImageSize)),
	}
}

func (s *ImageSource) Supports(ref domain.ImageReference) bool {
	if strings.HasPrefix(ref.Location, "file://") {
		return true
	}
	return ref.Location != "" && !strings.Contains(ref.Location, "://")
}

func (s *ImageSource) Fetch(ctx context.Context, ref domain.ImageReference) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolvePath(ref.Location)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if s.maxSize > 0 && info.Size() > s.maxSize {
		return nil, fmt.Errorf("%s: %w (limit is %d bytes)", path, common.ErrResponseTooLarge, s.maxSize)
	}
	return os.ReadFile(path)
}

func (s *ImageSource) resolvePath(location string) (string, error) {
	if strings.HasPrefix(location, "file://") {
		parsed, err := url.Parse(location)
		if err != nil {
			return "", err
		}
		return parsed.Path, nil
	}
	location = common.RemoveQuotesIfAny(location)
	if filepath.IsAbs(location) {
		return location, nil
	}
	return filepath.Join(s.directory, location), nil
}
