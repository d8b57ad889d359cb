package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// ClaudeProvider calls the Anthropic messages API
type ClaudeProvider struct {
	profile Profile
	keys    KeySource
	client  *http.Client
}

// NewClaudeProvider creates a Claude provider. httpClient may be nil.
func NewClaudeProvider(profile Profile, keys KeySource, httpClient *http.Client) *ClaudeProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ClaudeProvider{
		profile: profile,
		keys:    keys,
		client:  httpClient,
	}
}

// Name returns the provider name
func (p *ClaudeProvider) Name() string {
	return p.profile.Name
}

// Profile returns the vendor profile
func (p *ClaudeProvider) Profile() Profile {
	return p.profile
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Translate sends one messages request and normalizes content[0].text
func (p *ClaudeProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (*Reply, error) {
	apiKey := resolveKey(p.keys, p.profile.Name)
	if apiKey == "" {
		return nil, missingKeyError(p.profile.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, TranslateTimeout)
	defer cancel()

	body, err := p.post(ctx, apiKey, claudeRequest{
		Model:     p.profile.DefaultModel,
		MaxTokens: 2000,
		Messages: []claudeMessage{
			{Role: "user", Content: BuildPrompt(text, targetLang, sourceLang)},
		},
	})
	if err != nil {
		return nil, err
	}

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Kind: KindEmptyResult, Provider: p.profile.Name, Message: "unparseable response", Err: err}
	}
	if len(parsed.Content) == 0 {
		return nil, emptyResultError(p.profile.Name)
	}

	translated := Normalize(parsed.Content[0].Text)
	if translated == "" {
		return nil, emptyResultError(p.profile.Name)
	}

	model := parsed.Model
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

// Validate sends a one token messages request with apiKey
func (p *ClaudeProvider) Validate(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return configError(p.profile.Name, "API key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, ValidateTimeout)
	defer cancel()

	_, err := p.post(ctx, apiKey, claudeRequest{
		Model:     p.profile.DefaultModel,
		MaxTokens: 1,
		Messages:  []claudeMessage{{Role: "user", Content: "Hi"}},
	})
	return err
}

// post returns the response body of a 200 response
func (p *ClaudeProvider) post(ctx context.Context, apiKey string, payload claudeRequest) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal claude request: %w", err)
	}

	url := strings.TrimRight(p.profile.BaseURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build claude request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transportError(p.profile.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(p.profile.Name, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpError(p.profile.Name, resp.StatusCode, string(body))
	}
	return body, nil
}
