package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

var (
	ErrUnsupportedReference = errors.New("no image source supports the reference")
	ErrEmptyImage           = errors.New("empty image data")
	ErrImageTooLarge        = errors.New("image dimensions are too large")
)

// maxImagePixels protects against decompression bombs: the header is checked before the pixels are decoded.
const maxImagePixels = 64 * 1024 * 1024

// ImageSource retrieves raw image bytes for the references it supports (network URLs, local files...).
type ImageSource interface {
	Supports(ref ImageReference) bool
	Fetch(ctx context.Context, ref ImageReference) ([]byte, error)
}

// ImageAcquirer fetches the bytes behind a reference with the first source which supports it and decodes them to
// the canonical Image form. No retries: a single failure is terminal for the request.
type ImageAcquirer struct {
	sources []ImageSource
	logger  common.Logger
}

func NewImageAcquirer(sources []ImageSource, logger common.Logger) *ImageAcquirer {
	return &ImageAcquirer{
		sources: sources,
		logger:  logger,
	}
}

// Acquire returns the decoded image. All failures are StageErrors of kind AcquisitionError.
func (a *ImageAcquirer) Acquire(ctx context.Context, ref ImageReference) (*Image, error) {
	source := a.findSource(ref)
	if source == nil {
		return nil, NewStageError(AcquisitionError, fmt.Errorf("%w: %q", ErrUnsupportedReference, ref.Location))
	}
	data, err := source.Fetch(ctx, ref)
	if err != nil {
		return nil, NewStageError(AcquisitionError, err)
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, NewStageError(AcquisitionError, err)
	}
	a.logger.Log(fmt.Sprintf("acquired %s image %dx%d (%d bytes) from %s", img.Format, img.Width, img.Height, len(data), ref))
	return img, nil
}

func (a *ImageAcquirer) findSource(ref ImageReference) ImageSource {
	for _, source := range a.sources {
		if source.Supports(ref) {
			return source
		}
	}
	return nil
}

// DecodeImage decodes JPEG, PNG, GIF or WebP data into the canonical RGB form.
func DecodeImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not a decodable image: %w", err)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, ErrEmptyImage
	}
	if config.Width*config.Height > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, config.Width, config.Height)
	}
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not a decodable image: %w", err)
	}
	return NewImage(decoded, format, data), nil
}
