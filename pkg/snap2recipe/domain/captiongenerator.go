package domain

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyCaption = errors.New("the model produced an empty caption")

// Caption a short description of what's in the image. The only input of recipe generation.
type Caption string

func (c Caption) String() string {
	return string(c)
}

// ImageDescriber a captioning model: produces one descriptive string for the image using the model's own decoding
// and stopping rules.
type ImageDescriber interface {
	// Name the name of the backing model. Useful for debugging.
	Name() string
	Describe(ctx context.Context, img *Image) (string, error)
}

type CaptionGenerator struct {
	describer ImageDescriber
}

func NewCaptionGenerator(describer ImageDescriber) *CaptionGenerator {
	return &CaptionGenerator{
		describer: describer,
	}
}

// Caption describes the image. Failures (including an empty description) are StageErrors of kind CaptionError.
func (g *CaptionGenerator) Caption(ctx context.Context, img *Image) (Caption, error) {
	description, err := g.describer.Describe(ctx, img)
	if err != nil {
		return "", NewStageError(CaptionError, err)
	}
	description = strings.Join(strings.Fields(description), " ")
	if description == "" {
		return "", NewStageError(CaptionError, ErrEmptyCaption)
	}
	return Caption(description), nil
}
