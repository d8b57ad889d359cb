package translation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompatProvider talks to any OpenAI chat-completions compatible
// endpoint: OpenAI itself, Groq, DeepSeek and Perplexity
type OpenAICompatProvider struct {
	profile    Profile
	keys       KeySource
	httpClient *http.Client
}

// NewOpenAICompatProvider creates a provider for profile. httpClient may be nil.
func NewOpenAICompatProvider(profile Profile, keys KeySource, httpClient *http.Client) *OpenAICompatProvider {
	return &OpenAICompatProvider{
		profile:    profile,
		keys:       keys,
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (p *OpenAICompatProvider) Name() string {
	return p.profile.Name
}

// Profile returns the vendor profile
func (p *OpenAICompatProvider) Profile() Profile {
	return p.profile
}

func (p *OpenAICompatProvider) client(apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if p.profile.BaseURL != "" {
		config.BaseURL = strings.TrimRight(p.profile.BaseURL, "/")
	}
	var doer openai.HTTPDoer = config.HTTPClient
	if p.httpClient != nil {
		doer = p.httpClient
	}
	config.HTTPClient = okOnlyDoer{provider: p.profile.Name, doer: doer}
	return openai.NewClientWithConfig(config)
}

// okOnlyDoer turns 2xx and 3xx answers other than 200 into KindHTTP errors.
// go-openai decodes any status below 400 as a success.
type okOnlyDoer struct {
	provider string
	doer     openai.HTTPDoer
}

func (d okOnlyDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.doer.Do(req)
	if err != nil || resp.StatusCode == http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return resp, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return nil, httpError(d.provider, resp.StatusCode, string(body))
}

// Translate sends one chat completion and normalizes the first choice
func (p *OpenAICompatProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (*Reply, error) {
	apiKey := resolveKey(p.keys, p.profile.Name)
	if apiKey == "" {
		return nil, missingKeyError(p.profile.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, TranslateTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: p.profile.DefaultModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(text, targetLang, sourceLang),
			},
		},
		MaxTokens:   2000,
		Temperature: 0.3,
	}

	resp, err := p.client(apiKey).CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, emptyResultError(p.profile.Name)
	}

	translated := Normalize(resp.Choices[0].Message.Content)
	if translated == "" {
		return nil, emptyResultError(p.profile.Name)
	}

	model := resp.Model
	if model == "" {
		model = p.profile.DefaultModel
	}

	return &Reply{
		Text:       translated,
		Confidence: p.profile.Confidence,
		Model:      model,
		Provider:   p.profile.Name,
	}, nil
}

// Validate probes the vendor with apiKey. Vendors exposing /models are
// probed with a model listing, the others with a one token completion.
func (p *OpenAICompatProvider) Validate(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return configError(p.profile.Name, "API key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, ValidateTimeout)
	defer cancel()

	client := p.client(apiKey)

	var err error
	switch p.profile.Probe {
	case ProbeModels:
		_, err = client.ListModels(ctx)
	default:
		_, err = client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     p.profile.DefaultModel,
			Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "Hi"}},
			MaxTokens: 1,
		})
	}
	if err != nil {
		return p.classify(err)
	}
	return nil
}

// classify maps go-openai errors onto the closed error kinds
func (p *OpenAICompatProvider) classify(err error) error {
	var terr *Error
	if errors.As(err, &terr) {
		return terr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return httpError(p.profile.Name, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := strings.TrimSpace(string(reqErr.Body))
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		if body == "" {
			body = reqErr.HTTPStatus
		}
		return httpError(p.profile.Name, reqErr.HTTPStatusCode, body)
	}

	// 200 with a body that is not a chat completion
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Kind: KindEmptyResult, Provider: p.profile.Name, Message: "unparseable response", Err: err}
	}

	return transportError(p.profile.Name, err)
}

func resolveKey(keys KeySource, provider string) string {
	if keys == nil {
		return ""
	}
	return strings.TrimSpace(keys.APIKey(provider))
}
