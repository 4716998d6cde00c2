package api

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
)

type scorer []float64

func (s scorer) Score(ctx context.Context, img *domain.Image, labels []string) ([]float64, error) {
	return s, nil
}

type describer string

func (d describer) Name() string {
	return "test"
}

func (d describer) Describe(ctx context.Context, img *domain.Image) (string, error) {
	return string(d), nil
}

type textGenerator string

func (t textGenerator) Name() string {
	return "test"
}

func (t textGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return string(t), nil
}

type chat struct {
	mutex    sync.Mutex
	messages []string
}

func (c *chat) Notify(ctx context.Context, text string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.messages = append(c.messages, text)
	return nil
}

func newPhotoServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestAPI(t *testing.T, logits []float64) API {
	t.Helper()
	models := Models{
		Scorer:        scorer(logits),
		Describer:     describer("a bowl of tomato soup"),
		TextGenerator: textGenerator("Simmer the tomatoes for 20 minutes."),
	}
	a, err := NewAPIWithModels(models, common.NewConfig(nil), common.NewNopLogger())
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	return a
}

func TestHandleFoodPhoto(t *testing.T) {
	server := newPhotoServer(t)
	a := newTestAPI(t, []float64{5, 0, 0, 0})
	ref, ok := a.FindImageReference("bot: what can I cook? " + server.URL + "/soup.png")
	if !ok {
		t.Fatalf("Expected to find the photo link")
	}
	c := &chat{}
	result := a.HandlePhoto(t.Context(), ref, c)
	if expected, actual := domain.OutcomeCompletedWithRecipe, result.Outcome; expected != actual {
		t.Fatalf("Expected %s, got %s (%v)", expected, actual, result.Err)
	}
	if expected, actual := 4, len(c.messages); expected != actual {
		t.Fatalf("Expected %d messages, got %d: %q", expected, actual, c.messages)
	}
	if expected, actual := domain.MessageReceived, c.messages[0]; expected != actual {
		t.Errorf("Expected %q, got %q", expected, actual)
	}
	final := c.messages[3]
	if !strings.Contains(final, "a bowl of tomato soup") || !strings.Contains(final, "Simmer the tomatoes") {
		t.Errorf("Unexpected final message %q", final)
	}
}

func TestHandleNonFoodPhoto(t *testing.T) {
	server := newPhotoServer(t)
	a := newTestAPI(t, []float64{0, 5, 0, 0})
	c := &chat{}
	result := a.HandlePhoto(t.Context(), domain.NewImageReference(server.URL+"/cat.png"), c)
	if expected, actual := domain.OutcomeRejectedNotFood, result.Outcome; expected != actual {
		t.Fatalf("Expected %s, got %s", expected, actual)
	}
	expected := []string{domain.MessageReceived, domain.MessageNotFood}
	if len(c.messages) != len(expected) || c.messages[0] != expected[0] || c.messages[1] != expected[1] {
		t.Errorf("Expected %q, got %q", expected, c.messages)
	}
}

func TestInvalidLabelConfig(t *testing.T) {
	config := common.NewConfig(map[string]any{"foodLabel": "a photo of soup"})
	_, err := NewAPIWithModels(Models{Scorer: scorer(nil), Describer: describer(""), TextGenerator: textGenerator("")}, config, common.NewNopLogger())
	if err == nil {
		t.Errorf("Expected an error for a food label outside the label set")
	}
}
