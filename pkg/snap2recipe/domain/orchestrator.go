package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

// The stages as seen by the orchestrator. ImageAcquirer, FoodClassifier, CaptionGenerator and RecipeGenerator
// implement them.
type (
	Acquirer interface {
		Acquire(ctx context.Context, ref ImageReference) (*Image, error)
	}
	Classifier interface {
		Classify(ctx context.Context, img *Image) (ClassificationVerdict, error)
	}
	Captioner interface {
		Caption(ctx context.Context, img *Image) (Caption, error)
	}
	// RecipeWriter must never fail, see RecipeGenerator.
	RecipeWriter interface {
		GenerateRecipe(ctx context.Context, caption Caption) Recipe
	}
)

// StageTimeouts upper bounds for every external call of a request. A zero value disables the timeout.
type StageTimeouts struct {
	Acquire  time.Duration
	Classify time.Duration
	Caption  time.Duration
	Recipe   time.Duration
	Notify   time.Duration
	Video    time.Duration
}

func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Acquire:  30 * time.Second,
		Classify: 30 * time.Second,
		Caption:  time.Minute,
		Recipe:   2 * time.Minute,
		Notify:   15 * time.Second,
		Video:    15 * time.Second,
	}
}

func NewStageTimeoutsFromConfig(config *common.Config) StageTimeouts {
	defaults := DefaultStageTimeouts()
	return StageTimeouts{
		Acquire:  config.GetDurationOrDefault(ConfigKeyAcquireTimeout, defaults.Acquire),
		Classify: config.GetDurationOrDefault(ConfigKeyClassifyTimeout, defaults.Classify),
		Caption:  config.GetDurationOrDefault(ConfigKeyCaptionTimeout, defaults.Caption),
		Recipe:   config.GetDurationOrDefault(ConfigKeyRecipeTimeout, defaults.Recipe),
		Notify:   config.GetDurationOrDefault(ConfigKeyNotifyTimeout, defaults.Notify),
		Video:    config.GetDurationOrDefault(ConfigKeyVideoTimeout, defaults.Video),
	}
}

// RequestOrchestrator runs the pipeline for one submitted photo at a time per call; calls for different requests
// are independent and can run concurrently (the stages share nothing mutable). Within a request, stages run
// strictly one after another and notifications are sent in program order.
type RequestOrchestrator struct {
	acquirer     Acquirer
	classifier   Classifier
	captioner    Captioner
	recipeWriter RecipeWriter
	videoFinder  VideoFinder
	timeouts     StageTimeouts
	logger       common.Logger
	newID        func() string
}

// NewRequestOrchestrator `videoFinder` is optional (can be nil).
func NewRequestOrchestrator(
	acquirer Acquirer,
	classifier Classifier,
	captioner Captioner,
	recipeWriter RecipeWriter,
	videoFinder VideoFinder,
	timeouts StageTimeouts,
	logger common.Logger,
) *RequestOrchestrator {
	return &RequestOrchestrator{
		acquirer:     acquirer,
		classifier:   classifier,
		captioner:    captioner,
		recipeWriter: recipeWriter,
		videoFinder:  videoFinder,
		timeouts:     timeouts,
		logger:       logger,
		newID:        uuid.NewString,
	}
}

// Process takes the photo behind `ref` through all the stages, reporting progress to `notifier`. Every terminal
// state produces exactly one final message (besides the early acknowledgements). Never retries.
func (o *RequestOrchestrator) Process(ctx context.Context, ref ImageReference, notifier Notifier) *RequestResult {
	r := &request{
		orchestrator: o,
		ctx:          ctx,
		notifier:     notifier,
		result: &RequestResult{
			ID:        o.newID(),
			Reference: ref,
		},
	}
	r.enter(StateReceived)
	// Acknowledged before the image is even fetched.
	if err := r.notify(MessageReceived); err != nil {
		return r.fail(err)
	}

	var img *Image
	err := r.runStage(AcquisitionError, o.timeouts.Acquire, func(ctx context.Context) error {
		var err error
		img, err = o.acquirer.Acquire(ctx, ref)
		return err
	})
	if err != nil {
		return r.fail(err)
	}
	r.enter(StateAcquired)

	var verdict ClassificationVerdict
	err = r.runStage(ClassificationError, o.timeouts.Classify, func(ctx context.Context) error {
		var err error
		verdict, err = o.classifier.Classify(ctx, img)
		return err
	})
	if err != nil {
		return r.fail(err)
	}
	r.result.Verdict = &verdict
	r.enter(StateClassified)
	o.logger.Log(fmt.Sprintf("[%s] food probability %.4f (threshold %.2f)", r.result.ID, verdict.FoodProbability, verdict.Threshold))

	if !verdict.IsFood {
		if err := r.notify(MessageNotFood); err != nil {
			return r.fail(err)
		}
		r.enter(StateRejected)
		r.result.Outcome = OutcomeRejectedNotFood
		return r.result
	}

	var caption Caption
	err = r.runStage(CaptionError, o.timeouts.Caption, func(ctx context.Context) error {
		var err error
		caption, err = o.captioner.Caption(ctx, img)
		return err
	})
	if err != nil {
		return r.fail(err)
	}
	r.result.Caption = caption
	r.enter(StateCaptioned)
	if err := r.notify(FormatCaptionMessage(caption)); err != nil {
		return r.fail(err)
	}
	if err := r.notify(MessageGeneratingRecipe); err != nil {
		return r.fail(err)
	}

	r.enter(StateRecipeRequested)
	recipe := o.generateRecipe(ctx, caption)
	r.result.Recipe = &recipe
	videoURL := ""
	if !recipe.Placeholder {
		videoURL = o.findVideo(ctx, r.result.ID, caption)
	}
	if err := r.notify(FormatFinalMessage(caption, recipe, videoURL)); err != nil {
		return r.fail(err)
	}
	r.enter(StateCompleted)
	r.result.Outcome = OutcomeCompletedWithRecipe
	return r.result
}

func (o *RequestOrchestrator) generateRecipe(ctx context.Context, caption Caption) Recipe {
	ctx, cancel := withOptionalTimeout(ctx, o.timeouts.Recipe)
	defer cancel()
	return o.recipeWriter.GenerateRecipe(ctx, caption)
}

func (o *RequestOrchestrator) findVideo(ctx context.Context, requestID string, caption Caption) string {
	if o.videoFinder == nil {
		return ""
	}
	ctx, cancel := withOptionalTimeout(ctx, o.timeouts.Video)
	defer cancel()
	videoURL, err := o.videoFinder.FindVideo(ctx, string(caption)+" recipe")
	if err != nil {
		o.logger.Log(fmt.Sprintf("[%s] video lookup failed, sending the recipe without a video: %s", requestID, err))
		return ""
	}
	return videoURL
}

// request the mutable state of one Process call; never shared between goroutines.
type request struct {
	orchestrator *RequestOrchestrator
	ctx          context.Context
	notifier     Notifier
	result       *RequestResult
}

func (r *request) enter(state RequestState) {
	if len(r.result.States) > 0 {
		r.orchestrator.logger.Log(fmt.Sprintf("[%s] %s -> %s", r.result.ID, r.result.State, state))
	} else {
		r.orchestrator.logger.Log(fmt.Sprintf("[%s] %s (%s)", r.result.ID, state, r.result.Reference))
	}
	r.result.State = state
	r.result.States = append(r.result.States, state)
}

func (r *request) notify(text string) error {
	ctx, cancel := withOptionalTimeout(r.ctx, r.orchestrator.timeouts.Notify)
	defer cancel()
	if err := r.notifier.Notify(ctx, text); err != nil {
		return NewStageError(NotificationError, err)
	}
	return nil
}

// runStage runs a pipeline-fatal stage under its timeout. Whatever goes wrong inside (an error of another type,
// or even a panic) comes out as a StageError of `kind`.
func (r *request) runStage(kind ErrorKind, timeout time.Duration, stage func(ctx context.Context) error) (err error) {
	ctx, cancel := withOptionalTimeout(r.ctx, timeout)
	defer cancel()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = NewStageError(kind, fmt.Errorf("panic: %v", recovered))
		}
	}()
	err = stage(ctx)
	if err != nil && !IsKind(err, kind) {
		err = NewStageError(kind, err)
	}
	return err
}

// fail moves the request to StateFailed and reports the fault to the user with a single generic message.
// Nothing already sent is retracted.
func (r *request) fail(err error) *RequestResult {
	r.result.Err = err
	r.result.Outcome = outcomeForFailure(err)
	r.enter(StateFailed)
	r.orchestrator.logger.Log(fmt.Sprintf("[%s] %s: %s", r.result.ID, r.result.Outcome, err))
	if notifyErr := r.notify(FormatErrorMessage(err)); notifyErr != nil {
		r.orchestrator.logger.Log(fmt.Sprintf("[%s] couldn't report the error to the user: %s", r.result.ID, notifyErr))
	}
	return r.result
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
