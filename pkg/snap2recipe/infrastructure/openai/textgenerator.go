package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	oagc "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

const (
	// ConfigKeyBaseURL any OpenAI-compatible chat completions endpoint.
	ConfigKeyBaseURL = "recipeBaseURL"
	// ConfigKeyModel the chat model name as the endpoint knows it.
	ConfigKeyModel = "recipeModel"
	// ConfigKeyTemperature optional; the endpoint's default is used if absent.
	ConfigKeyTemperature = "recipeTemperature"
	// ConfigKeyAPIKey prefer the environment variable EnvKeyAPIKey.
	ConfigKeyAPIKey = "recipeAPIKey"
	EnvKeyAPIKey    = "SNAP2RECIPE_RECIPE_API_KEY"
)

const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
)

var (
	ErrNoAPIKey  = errors.New("no API key for the recipe model")
	ErrNoChoices = errors.New("the model returned no choices")
)

// TextGenerator chat completion over the OpenAI API.
type TextGenerator struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewTextGenerator doesn't fail on a missing API key: the bot can still classify and caption photos, and every
// recipe request returns an explanation instead.
func NewTextGenerator(httpClient *http.Client, config *common.Config) *TextGenerator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TextGenerator{
		apiKey:      config.GetSecret(ConfigKeyAPIKey, EnvKeyAPIKey),
		baseURL:     config.GetStringOrDefault(ConfigKeyBaseURL, DefaultBaseURL),
		model:       config.GetStringOrDefault(ConfigKeyModel, DefaultModel),
		temperature: config.GetFloatOrDefault(ConfigKeyTemperature, -1),
		httpClient:  httpClient,
	}
}

func (t *TextGenerator) Name() string {
	return t.model
}

func (t *TextGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if t.apiKey == "" {
		return "", ErrNoAPIKey
	}
	// Constructed per request; concurrent requests share nothing.
	client := oagc.NewClient(
		option.WithAPIKey(t.apiKey),
		option.WithBaseURL(t.baseURL),
		option.WithHTTPClient(t.httpClient),
		option.WithMaxRetries(0),
	)
	params := oagc.ChatCompletionNewParams{
		Messages: []oagc.ChatCompletionMessageParamUnion{
			oagc.SystemMessage(systemPrompt),
			oagc.UserMessage(userPrompt),
		},
		Model: oagc.ChatModel(t.model),
	}
	if t.temperature >= 0 {
		params.Temperature = oagc.Float(t.temperature)
	}
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oagc.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%s returned status %d: %s", t.baseURL, apiErr.StatusCode, apiErr.Message)
		}
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}
	return completion.Choices[0].Message.Content, nil
}
