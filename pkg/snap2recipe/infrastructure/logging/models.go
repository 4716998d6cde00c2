package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
)

type textGeneratorDecorator struct {
	wrappedTextGenerator domain.TextGenerator
	logger               common.Logger
}

// NewTextGeneratorDecorator logs prompts, responses and how long the model took.
func NewTextGeneratorDecorator(wrappedTextGenerator domain.TextGenerator, logger common.Logger) domain.TextGenerator {
	return &textGeneratorDecorator{
		wrappedTextGenerator: wrappedTextGenerator,
		logger:               logger,
	}
}

func (t *textGeneratorDecorator) Name() string {
	return t.wrappedTextGenerator.Name()
}

func (t *textGeneratorDecorator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	t.logger.Log(fmt.Sprintf("\n================\n %s prompt:\n[system] %s\n[user] %s\n================\n", t.Name(), systemPrompt, userPrompt))
	start := time.Now()
	response, err := t.wrappedTextGenerator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		t.logger.Log(fmt.Sprintf("%s failed after %d ms: %s", t.Name(), time.Since(start).Milliseconds(), err))
		return "", err
	}
	t.logger.Log(fmt.Sprintf("\n================\n %s response:\n%s\n (took %d ms)\n================\n", t.Name(), response, time.Since(start).Milliseconds()))
	return response, nil
}

type imageDescriberDecorator struct {
	wrappedImageDescriber domain.ImageDescriber
	logger                common.Logger
}

func NewImageDescriberDecorator(wrappedImageDescriber domain.ImageDescriber, logger common.Logger) domain.ImageDescriber {
	return &imageDescriberDecorator{
		wrappedImageDescriber: wrappedImageDescriber,
		logger:                logger,
	}
}

func (i *imageDescriberDecorator) Name() string {
	return i.wrappedImageDescriber.Name()
}

func (i *imageDescriberDecorator) Describe(ctx context.Context, img *domain.Image) (string, error) {
	start := time.Now()
	description, err := i.wrappedImageDescriber.Describe(ctx, img)
	took := time.Since(start).Milliseconds()
	if err != nil {
		i.logger.Log(fmt.Sprintf("%s failed to describe a %dx%d image after %d ms: %s", i.Name(), img.Width, img.Height, took, err))
		return "", err
	}
	i.logger.Log(fmt.Sprintf("%s described a %dx%d image as %q (took %d ms)", i.Name(), img.Width, img.Height, description, took))
	return description, nil
}

type imageTextScorerDecorator struct {
	wrappedScorer domain.ImageTextScorer
	logger        common.Logger
}

func NewImageTextScorerDecorator(wrappedScorer domain.ImageTextScorer, logger common.Logger) domain.ImageTextScorer {
	return &imageTextScorerDecorator{
		wrappedScorer: wrappedScorer,
		logger:        logger,
	}
}

func (i *imageTextScorerDecorator) Score(ctx context.Context, img *domain.Image, labels []string) ([]float64, error) {
	start := time.Now()
	scores, err := i.wrappedScorer.Score(ctx, img, labels)
	took := time.Since(start).Milliseconds()
	if err != nil {
		i.logger.Log(fmt.Sprintf("scoring failed after %d ms: %s", took, err))
		return nil, err
	}
	i.logger.Log(fmt.Sprintf("scored %d labels: %v (took %d ms)", len(labels), scores, took))
	return scores, nil
}
