package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider translates through the Google GenAI SDK. It is only used
// when requested by name and never joins the fallback or auto order.
type GeminiProvider struct {
	profile    Profile
	keys       KeySource
	httpClient *http.Client
}

// NewGeminiProvider creates a Gemini provider. httpClient may be nil.
func NewGeminiProvider(profile Profile, keys KeySource, httpClient *http.Client) *GeminiProvider {
	return &GeminiProvider{
		profile:    profile,
		keys:       keys,
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return p.profile.Name
}

// Profile returns the vendor profile
func (p *GeminiProvider) Profile() Profile {
	return p.profile
}

func (p *GeminiProvider) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.httpClient != nil {
		config.HTTPClient = p.httpClient
	}
	if p.profile.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: p.profile.BaseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, configError(p.profile.Name, fmt.Sprintf("create client: %v", err))
	}
	return client, nil
}

// Translate generates content for the translation prompt
func (p *GeminiProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (*Reply, error) {
	apiKey := resolveKey(p.keys, p.profile.Name)
	if apiKey == "" {
		return nil, missingKeyError(p.profile.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, TranslateTimeout)
	defer cancel()

	client, err := p.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	resp, err := client.Models.GenerateContent(ctx, p.profile.DefaultModel, genai.Text(BuildPrompt(text, targetLang, sourceLang)), nil)
	if err != nil {
		return nil, p.classify(err)
	}

	translated := Normalize(resp.Text())
	if translated == "" {
		return nil, emptyResultError(p.profile.Name)
	}

	model := resp.ModelVersion
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

// Validate sends a tiny generate request with apiKey
func (p *GeminiProvider) Validate(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return configError(p.profile.Name, "API key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, ValidateTimeout)
	defer cancel()

	client, err := p.client(ctx, apiKey)
	if err != nil {
		return err
	}

	if _, err := client.Models.GenerateContent(ctx, p.profile.DefaultModel, genai.Text("Hi"), nil); err != nil {
		return p.classify(err)
	}
	return nil
}

// classify maps genai status errors onto KindHTTP; everything else the SDK
// returns is a transport failure
func (p *GeminiProvider) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return httpError(p.profile.Name, apiErr.Code, apiErr.Message)
	}
	return transportError(p.profile.Name, err)
}
