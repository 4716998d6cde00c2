package domain

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

type pipeline struct {
	source        *fakeSource
	scorer        *fakeScorer
	describer     *fakeDescriber
	textGenerator *fakeTextGenerator
	videoFinder   *fakeVideoFinder
	timeouts      StageTimeouts
}

func newPipeline(t *testing.T) *pipeline {
	return &pipeline{
		source:        &fakeSource{data: encodeTestPNG(t, 8, 8)},
		scorer:        &fakeScorer{probabilities: []float64{0.95, 0.02, 0.02, 0.01}},
		describer:     &fakeDescriber{caption: "a plate of pasta with tomato sauce"},
		textGenerator: &fakeTextGenerator{text: "1. Boil water.\n2. Cook the pasta."},
		timeouts:      DefaultStageTimeouts(),
	}
}

func (p *pipeline) run(t *testing.T, notifier Notifier) *RequestResult {
	t.Helper()
	logger := common.NewNopLogger()
	classifier, err := NewFoodClassifier(p.scorer, DefaultLabelSet())
	if err != nil {
		t.Fatal(err)
	}
	var videoFinder VideoFinder
	if p.videoFinder != nil {
		videoFinder = p.videoFinder
	}
	orchestrator := NewRequestOrchestrator(
		NewImageAcquirer([]ImageSource{p.source}, logger),
		classifier,
		NewCaptionGenerator(p.describer),
		NewRecipeGenerator(p.textGenerator, logger),
		videoFinder,
		p.timeouts,
		logger,
	)
	return orchestrator.Process(t.Context(), NewImageReference("https://example.com/photo.jpg"), notifier)
}

func TestProcessCompleted(t *testing.T) {
	p := newPipeline(t)
	notifier := &recordingNotifier{}
	result := p.run(t, notifier)

	if expected, actual := OutcomeCompletedWithRecipe, result.Outcome; expected != actual {
		t.Fatalf("Expected outcome %s, got %s (err: %v)", expected, actual, result.Err)
	}
	expectedStates := []RequestState{StateReceived, StateAcquired, StateClassified, StateCaptioned, StateRecipeRequested, StateCompleted}
	if !reflect.DeepEqual(expectedStates, result.States) {
		t.Errorf("Expected states %v, got %v", expectedStates, result.States)
	}
	expectedMessages := []string{
		MessageReceived,
		"📸 AI identified this image as:\n*a plate of pasta with tomato sauce*",
		MessageGeneratingRecipe,
		"📜 This recipe for *a plate of pasta with tomato sauce*:\n\n1. Boil water.\n2. Cook the pasta.",
	}
	if !reflect.DeepEqual(expectedMessages, notifier.Messages()) {
		t.Errorf("Expected messages %q, got %q", expectedMessages, notifier.Messages())
	}
	if expected, actual := 1, p.describer.calls; expected != actual {
		t.Errorf("Expected %d caption call, got %d", expected, actual)
	}
	if expected, actual := 1, p.textGenerator.calls; expected != actual {
		t.Errorf("Expected %d recipe attempt, got %d", expected, actual)
	}
	if result.ID == "" {
		t.Errorf("Expected a request ID")
	}
	if result.Err != nil {
		t.Errorf("Unexpected error %s", result.Err)
	}
}

func TestProcessRejected(t *testing.T) {
	p := newPipeline(t)
	p.scorer.probabilities = []float64{0.10, 0.30, 0.50, 0.10}
	notifier := &recordingNotifier{}
	result := p.run(t, notifier)

	if expected, actual := OutcomeRejectedNotFood, result.Outcome; expected != actual {
		t.Fatalf("Expected outcome %s, got %s", expected, actual)
	}
	if expected, actual := StateRejected, result.State; expected != actual {
		t.Errorf("Expected state %s, got %s", expected, actual)
	}
	if expected, actual := []string{MessageReceived, MessageNotFood}, notifier.Messages(); !reflect.DeepEqual(expected, actual) {
		t.Errorf("Expected messages %q, got %q", expected, actual)
	}
	if p.describer.calls != 0 || p.textGenerator.calls != 0 {
		t.Errorf("Expected no caption or recipe calls, got %d and %d", p.describer.calls, p.textGenerator.calls)
	}
}

func TestProcessRecipeServiceFailure(t *testing.T) {
	p := newPipeline(t)
	p.textGenerator = &fakeTextGenerator{err: errors.New("401 Unauthorized: Authentication Fails (invalid api key)")}
	notifier := &recordingNotifier{}
	result := p.run(t, notifier)

	if expected, actual := OutcomeCompletedWithRecipe, result.Outcome; expected != actual {
		t.Fatalf("Expected outcome %s, got %s", expected, actual)
	}
	if result.Recipe == nil || !result.Recipe.Placeholder {
		t.Fatalf("Expected a placeholder recipe, got %+v", result.Recipe)
	}
	messages := notifier.Messages()
	if expected, actual := 4, len(messages); expected != actual {
		t.Fatalf("Expected %d messages, got %d: %q", expected, actual, messages)
	}
	final := messages[3]
	if !strings.Contains(final, "a plate of pasta with tomato sauce") {
		t.Errorf("Expected the final message to contain the caption, got %q", final)
	}
	if !strings.Contains(final, RecipeErrorPrefix) || !strings.Contains(final, "invalid api key") {
		t.Errorf("Expected a warning-marked explanation, got %q", final)
	}
	if strings.HasPrefix(final, "❌") {
		t.Errorf("A recipe failure must not be reported as a pipeline error: %q", final)
	}
}

func TestProcessAcquisitionFailure(t *testing.T) {
	p := newPipeline(t)
	p.source.data = nil
	p.source.err = errors.New("dial tcp: lookup example.com: no such host")
	notifier := &recordingNotifier{}
	result := p.run(t, notifier)

	if expected, actual := OutcomeFailedAcquisition, result.Outcome; expected != actual {
		t.Fatalf("Expected outcome %s, got %s", expected, actual)
	}
	messages := notifier.Messages()
	if expected, actual := 2, len(messages); expected != actual {
		t.Fatalf("Expected %d messages, got %d: %q", expected, actual, messages)
	}
	if !strings.HasPrefix(messages[1], "❌ There is an Error:\n") || !strings.Contains(messages[1], "no such host") {
		t.Errorf("Expected a generic error message with the fault, got %q", messages[1])
	}
	if p.scorer.calls != 0 || p.describer.calls != 0 || p.textGenerator.calls != 0 {
		t.Errorf("Expected no model calls, got %d, %d, %d", p.scorer.calls, p.describer.calls, p.textGenerator.calls)
	}
}

func TestProcessModelFailures(t *testing.T) {
	t.Run("classifier", func(t *testing.T) {
		p := newPipeline(t)
		p.scorer.err = errors.New("onnxruntime: invalid input shape")
		notifier := &recordingNotifier{}
		result := p.run(t, notifier)
		if expected, actual := OutcomeFailedGeneration, result.Outcome; expected != actual {
			t.Errorf("Expected outcome %s, got %s", expected, actual)
		}
		if !IsKind(result.Err, ClassificationError) {
			t.Errorf("Expected a ClassificationError, got %v", result.Err)
		}
		if expected, actual := 2, len(notifier.Messages()); expected != actual {
			t.Errorf("Expected %d messages, got %d", expected, actual)
		}
		if p.describer.calls != 0 {
			t.Errorf("Expected no caption calls")
		}
	})

	t.Run("classifier panic", func(t *testing.T) {
		p := newPipeline(t)
		p.scorer.panicWith = "index out of range"
		result := p.run(t, &recordingNotifier{})
		if !IsKind(result.Err, ClassificationError) {
			t.Errorf("Expected a ClassificationError, got %v", result.Err)
		}
		if expected, actual := StateFailed, result.State; expected != actual {
			t.Errorf("Expected state %s, got %s", expected, actual)
		}
	})

	t.Run("caption", func(t *testing.T) {
		p := newPipeline(t)
		p.describer.err = errors.New("decoder session failed")
		notifier := &recordingNotifier{}
		result := p.run(t, notifier)
		if !IsKind(result.Err, CaptionError) {
			t.Errorf("Expected a CaptionError, got %v", result.Err)
		}
		if expected, actual := []RequestState{StateReceived, StateAcquired, StateClassified, StateFailed}, result.States; !reflect.DeepEqual(expected, actual) {
			t.Errorf("Expected states %v, got %v", expected, actual)
		}
		if p.textGenerator.calls != 0 {
			t.Errorf("Expected no recipe calls")
		}
	})

	t.Run("caption timeout", func(t *testing.T) {
		p := newPipeline(t)
		p.describer.block = true
		p.timeouts.Caption = 10 * time.Millisecond
		result := p.run(t, &recordingNotifier{})
		if !IsKind(result.Err, CaptionError) {
			t.Errorf("Expected a CaptionError, got %v", result.Err)
		}
		if !errors.Is(result.Err, context.DeadlineExceeded) {
			t.Errorf("Expected the deadline to be the cause, got %v", result.Err)
		}
	})
}

func TestProcessNotificationFailure(t *testing.T) {
	p := newPipeline(t)
	notifier := &recordingNotifier{failAt: 2} // the caption message
	result := p.run(t, notifier)

	if expected, actual := OutcomeFailedDelivery, result.Outcome; expected != actual {
		t.Errorf("Expected outcome %s, got %s", expected, actual)
	}
	if p.textGenerator.calls != 0 {
		t.Errorf("Expected no recipe calls after a delivery failure")
	}
	messages := notifier.Messages()
	if expected, actual := 2, len(messages); expected != actual {
		t.Fatalf("Expected %d delivered messages, got %d: %q", expected, actual, messages)
	}
	if !strings.HasPrefix(messages[1], "❌") {
		t.Errorf("Expected a best-effort error message, got %q", messages[1])
	}
}

func TestProcessVideo(t *testing.T) {
	t.Run("appended", func(t *testing.T) {
		p := newPipeline(t)
		p.videoFinder = &fakeVideoFinder{url: "https://youtube.com/watch?v=abc"}
		notifier := &recordingNotifier{}
		p.run(t, notifier)
		messages := notifier.Messages()
		if !strings.HasSuffix(messages[len(messages)-1], "https://youtube.com/watch?v=abc") {
			t.Errorf("Expected the video link in the final message, got %q", messages[len(messages)-1])
		}
		if expected, actual := "a plate of pasta with tomato sauce recipe", p.videoFinder.query; expected != actual {
			t.Errorf("Expected query %q, got %q", expected, actual)
		}
	})

	t.Run("lookup failure is not fatal", func(t *testing.T) {
		p := newPipeline(t)
		p.videoFinder = &fakeVideoFinder{err: errors.New("quota exceeded")}
		result := p.run(t, &recordingNotifier{})
		if expected, actual := OutcomeCompletedWithRecipe, result.Outcome; expected != actual {
			t.Errorf("Expected outcome %s, got %s", expected, actual)
		}
	})

	t.Run("lookup has its own timeout", func(t *testing.T) {
		p := newPipeline(t)
		p.videoFinder = &fakeVideoFinder{url: "https://youtube.com/watch?v=abc", block: true}
		p.timeouts.Notify = 0
		p.timeouts.Video = 10 * time.Millisecond
		notifier := &recordingNotifier{}
		result := p.run(t, notifier)
		if expected, actual := OutcomeCompletedWithRecipe, result.Outcome; expected != actual {
			t.Errorf("Expected outcome %s, got %s", expected, actual)
		}
		messages := notifier.Messages()
		if strings.Contains(messages[len(messages)-1], "youtube.com") {
			t.Errorf("Expected no video link after the lookup timed out, got %q", messages[len(messages)-1])
		}
	})
}

func TestProcessConcurrentRequests(t *testing.T) {
	logger := common.NewNopLogger()
	classifier, err := NewFoodClassifier(staticScorer{2, -1, -1, -1}, DefaultLabelSet())
	if err != nil {
		t.Fatal(err)
	}
	orchestrator := NewRequestOrchestrator(
		NewImageAcquirer([]ImageSource{staticSource(encodeTestPNG(t, 8, 8))}, logger),
		classifier,
		NewCaptionGenerator(staticDescriber("a bowl of ramen")),
		NewRecipeGenerator(staticTextGenerator("Simmer the broth."), logger),
		nil,
		DefaultStageTimeouts(),
		logger,
	)
	const requestCount = 8
	notifiers := make([]*recordingNotifier, requestCount)
	results := make(chan *RequestResult, requestCount)
	for i := range notifiers {
		notifiers[i] = &recordingNotifier{}
	}
	for _, notifier := range notifiers {
		go func() {
			results <- orchestrator.Process(t.Context(), NewImageReference("https://example.com/ramen.jpg"), notifier)
		}()
	}
	ids := make(map[string]bool)
	for range requestCount {
		result := <-results
		if result.Outcome != OutcomeCompletedWithRecipe {
			t.Errorf("Expected every request to complete, got %s", result.Outcome)
		}
		ids[result.ID] = true
	}
	if expected, actual := requestCount, len(ids); expected != actual {
		t.Errorf("Expected %d distinct request IDs, got %d", expected, actual)
	}
	for _, notifier := range notifiers {
		if expected, actual := 4, len(notifier.Messages()); expected != actual {
			t.Errorf("Expected %d messages per request, got %d", expected, actual)
		}
	}
}
