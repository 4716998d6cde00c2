package llamacpp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
)

const (
	// ConfigKeyServer the base URL of a llama.cpp server started with a multimodal projector (e.g. LLaVA).
	ConfigKeyServer = "captionServer"
	// ConfigKeySeed makes sampling reproducible, so the same photo gets the same caption.
	ConfigKeySeed = "captionSeed"
)

const imageID = 10

// The prompt asks for a caption in the same style as a captioning model would produce: one short sentence which
// later goes into the recipe prompt as is.
const prompt = `A chat between a curious human and an artificial intelligence assistant. The assistant gives short, precise answers.
USER:[img-10]Describe the dish in this photo in one short sentence, like an image caption.
ASSISTANT:`

var ErrNoServer = errors.New("the caption server is not configured")

type jsonmap map[string]any

var defaultParams = jsonmap{
	"n_predict":      48,
	"temperature":    0.1,
	"stop":           []string{"</s>", "USER:", "\n"},
	"repeat_penalty": 1.1,
	"top_k":          40,
	"top_p":          0.5,
	"cache_prompt":   false,
	"stream":         false,
}

type Describer struct {
	serverAddress string
	seed          int
	client        *http.Client
}

func NewDescriber(httpClient *http.Client, config *common.Config) (*Describer, error) {
	serverAddress := strings.TrimRight(config.GetString(ConfigKeyServer), "/")
	if serverAddress == "" {
		return nil, ErrNoServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Describer{
		serverAddress: serverAddress,
		seed:          config.GetIntOrDefault(ConfigKeySeed, 42),
		client:        httpClient,
	}, nil
}

func (d *Describer) Name() string {
	return "llamacpp"
}

func (d *Describer) Describe(ctx context.Context, img *domain.Image) (string, error) {
	if len(img.Encoded) == 0 {
		return "", errors.New("the image has no encoded form")
	}
	data := maps.Clone(defaultParams)
	data["prompt"] = prompt
	data["seed"] = d.seed
	data["image_data"] = []jsonmap{
		{"data": base64.StdEncoding.EncodeToString(img.Encoded), "id": imageID},
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(&data); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.serverAddress+"/completion", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("caption server returned %s: %s", res.Status, strings.TrimSpace(string(body)))
	}
	var responseBody struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(res.Body).Decode(&responseBody); err != nil {
		return "", fmt.Errorf("failed to parse the caption server response: %w", err)
	}
	return common.RemoveQuotesIfAny(responseBody.Content), nil
}
