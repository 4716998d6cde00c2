package domain

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"
)

type fakeSource struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeSource) Supports(ref ImageReference) bool {
	return true
}

func (f *fakeSource) Fetch(ctx context.Context, ref ImageReference) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

// fakeScorer returns logits which normalize exactly to the given probabilities.
type fakeScorer struct {
	probabilities []float64
	err           error
	panicWith     any
	calls         int
}

func (f *fakeScorer) Score(ctx context.Context, img *Image, labels []string) ([]float64, error) {
	f.calls++
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return nil, f.err
	}
	logits := make([]float64, len(f.probabilities))
	for i, p := range f.probabilities {
		logits[i] = math.Log(p)
	}
	return logits, nil
}

type fakeDescriber struct {
	caption string
	err     error
	// block makes Describe wait for the context to be done.
	block bool
	calls int
}

func (f *fakeDescriber) Name() string {
	return "fake"
}

func (f *fakeDescriber) Describe(ctx context.Context, img *Image) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.caption, f.err
}

type fakeTextGenerator struct {
	text         string
	err          error
	panicWith    any
	calls        int
	systemPrompt string
	userPrompt   string
}

func (f *fakeTextGenerator) Name() string {
	return "fake"
}

func (f *fakeTextGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.text, f.err
}

type fakeVideoFinder struct {
	url   string
	err   error
	query string
	// block makes FindVideo wait for the context to expire.
	block bool
}

func (f *fakeVideoFinder) FindVideo(ctx context.Context, query string) (string, error) {
	f.query = query
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.url, f.err
}

type recordingNotifier struct {
	mutex    sync.Mutex
	messages []string
	// failAt makes the n-th (1-based) notification fail; 0 disables.
	failAt int
	calls  int
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.calls++
	if n.failAt != 0 && n.calls == n.failAt {
		return errors.New("connection reset")
	}
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) Messages() []string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]string(nil), n.messages...)
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Stateless fakes, safe to share between goroutines.
type (
	staticSource        []byte
	staticScorer        []float64
	staticDescriber     string
	staticTextGenerator string
)

func (s staticSource) Supports(ref ImageReference) bool {
	return true
}

func (s staticSource) Fetch(ctx context.Context, ref ImageReference) ([]byte, error) {
	return s, nil
}

func (s staticScorer) Score(ctx context.Context, img *Image, labels []string) ([]float64, error) {
	return s, nil
}

func (s staticDescriber) Name() string {
	return "static"
}

func (s staticDescriber) Describe(ctx context.Context, img *Image) (string, error) {
	return string(s), nil
}

func (s staticTextGenerator) Name() string {
	return "static"
}

func (s staticTextGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return string(s), nil
}
