package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/blip"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/clip"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/filesystem"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/llamacpp"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/logging"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/openai"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/web"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/youtube"
)

// See domain/config.go
const (
	ConfigKeyAgentName = domain.ConfigKeyAgentName
	ConfigKeyLogPath   = domain.ConfigKeyLogPath
	// ConfigKeyCaptionBackend "blip" (local ONNX models, the default) or "llamacpp" (a remote llama.cpp server).
	ConfigKeyCaptionBackend = "captionBackend"
)

const (
	CaptionBackendBLIP     = "blip"
	CaptionBackendLlamaCpp = "llamacpp"
)

var ErrUnknownCaptionBackend = errors.New("unknown caption backend")

// API is the entrypoint to Snap2Recipe. It shouldn't contain any logic of its own; it glues all the components
// together and provides a public interface for domain.RequestOrchestrator.
// This API can be used in various contexts: in an IRC chat, console input/output, a photo feed etc.
type API interface {
	// HandlePhoto takes one submitted photo through the whole pipeline, reporting progress to `notifier`.
	// Safe to call concurrently, one goroutine per submitted photo.
	HandlePhoto(ctx context.Context, ref domain.ImageReference, notifier domain.Notifier) *domain.RequestResult
	// FindImageReference extracts the photo link from a free-form chat message, if there's one.
	FindImageReference(text string) (domain.ImageReference, bool)
}

// Stoppable releases the loaded models.
type Stoppable interface {
	Stop()
}

// Models the pluggable model adapters; everything else is built from the config.
type Models struct {
	Scorer        domain.ImageTextScorer
	Describer     domain.ImageDescriber
	TextGenerator domain.TextGenerator
	// VideoFinder optional.
	VideoFinder domain.VideoFinder
}

type api struct {
	orchestrator *domain.RequestOrchestrator
	urlFinder    *web.URLFinder
	logger       common.Logger
	closers      []func()
}

// NewAPI loads all the models once; they are shared by all requests.
func NewAPI(config *common.Config) (API, Stoppable, error) {
	logger := common.NewFileLogger(config.GetStringOrDefault(ConfigKeyLogPath, "log.txt"))
	labelSet, err := domain.NewLabelSetFromConfig(config)
	if err != nil {
		return nil, nil, err
	}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	scorer, err := clip.NewScorer(labelSet.Labels, config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load the food classifier: %w", err)
	}
	closers = append(closers, scorer.Close)
	describer, closeDescriber, err := newDescriber(config)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("failed to load the caption model: %w", err)
	}
	if closeDescriber != nil {
		closers = append(closers, closeDescriber)
	}
	models := Models{
		Scorer:        scorer,
		Describer:     describer,
		TextGenerator: openai.NewTextGenerator(http.DefaultClient, config),
	}
	videoFinder, err := youtube.NewVideoFinder(context.Background(), config)
	switch {
	case err == nil:
		models.VideoFinder = videoFinder
	case errors.Is(err, youtube.ErrNoAPIKey):
		logger.Log("no YouTube API key, video suggestions are disabled")
	default:
		closeAll()
		return nil, nil, err
	}
	a, err := newAPI(models, config, logger)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	a.closers = closers
	return a, a, nil
}

func newDescriber(config *common.Config) (domain.ImageDescriber, func(), error) {
	backend := config.GetStringOrDefault(ConfigKeyCaptionBackend, CaptionBackendBLIP)
	switch backend {
	case CaptionBackendBLIP:
		describer, err := blip.NewDescriber(config)
		if err != nil {
			return nil, nil, err
		}
		return describer, describer.Close, nil
	case CaptionBackendLlamaCpp:
		describer, err := llamacpp.NewDescriber(http.DefaultClient, config)
		if err != nil {
			return nil, nil, err
		}
		return describer, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownCaptionBackend, backend)
	}
}

// NewAPIWithModels builds the pipeline around already loaded models (the caller owns them).
func NewAPIWithModels(models Models, config *common.Config, logger common.Logger) (API, error) {
	return newAPI(models, config, logger)
}

func newAPI(models Models, config *common.Config, logger common.Logger) (*api, error) {
	labelSet, err := domain.NewLabelSetFromConfig(config)
	if err != nil {
		return nil, err
	}
	classifier, err := domain.NewFoodClassifier(logging.NewImageTextScorerDecorator(models.Scorer, logger), labelSet)
	if err != nil {
		return nil, err
	}
	urlFinder := web.NewURLFinder()
	acquirer := domain.NewImageAcquirer(
		[]domain.ImageSource{
			web.NewImageSource(http.DefaultClient, config),
			filesystem.NewImageSource(config),
		},
		logger,
	)
	captioner := domain.NewCaptionGenerator(logging.NewImageDescriberDecorator(models.Describer, logger))
	recipeWriter := domain.NewRecipeGenerator(logging.NewTextGeneratorDecorator(models.TextGenerator, logger), logger)
	return &api{
		orchestrator: domain.NewRequestOrchestrator(
			acquirer,
			classifier,
			captioner,
			recipeWriter,
			models.VideoFinder,
			domain.NewStageTimeoutsFromConfig(config),
			logger,
		),
		urlFinder: urlFinder,
		logger:    logger,
	}, nil
}

func (a *api) HandlePhoto(ctx context.Context, ref domain.ImageReference, notifier domain.Notifier) *domain.RequestResult {
	result := a.orchestrator.Process(ctx, ref, notifier)
	a.logger.Log(fmt.Sprintf("request %s finished: %s (%s)", result.ID, result.Outcome, result.State))
	return result
}

func (a *api) FindImageReference(text string) (domain.ImageReference, bool) {
	return a.urlFinder.FindImageReference(text)
}

func (a *api) Stop() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
