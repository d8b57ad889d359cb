package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// MockProvider implements translation.Provider with canned replies
type MockProvider struct {
	ProviderName string
	Replies      map[string]string // text -> translation
	Errors       map[string]error  // text -> error
	Err          error             // returned for every text when set
	ValidKeys    map[string]bool

	mu    sync.Mutex
	Calls []string
}

// NewMockProvider creates a provider that prefixes every text with its name
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Replies:      make(map[string]string),
		Errors:       make(map[string]error),
		ValidKeys:    make(map[string]bool),
	}
}

// Name implements translation.Provider
func (m *MockProvider) Name() string {
	return m.ProviderName
}

// Profile implements translation.Provider
func (m *MockProvider) Profile() translation.Profile {
	if p, ok := translation.DefaultProfiles()[m.ProviderName]; ok {
		return p
	}
	return translation.Profile{Name: m.ProviderName, DisplayName: m.ProviderName, DefaultModel: "mock", Confidence: 0.5}
}

// Translate implements translation.Provider
func (m *MockProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (*translation.Reply, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, fmt.Sprintf("%s->%s: %s", sourceLang, targetLang, text))
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.Errors[text]; ok {
		return nil, err
	}

	reply, ok := m.Replies[text]
	if !ok {
		reply = fmt.Sprintf("[%s %s] %s", m.ProviderName, targetLang, text)
	}
	profile := m.Profile()
	return &translation.Reply{
		Text:       reply,
		Confidence: profile.Confidence,
		Model:      profile.DefaultModel,
		Provider:   m.ProviderName,
	}, nil
}

// Validate implements translation.Provider
func (m *MockProvider) Validate(ctx context.Context, apiKey string) error {
	if m.ValidKeys[apiKey] {
		return nil
	}
	return fmt.Errorf("%s: API error (status 401): invalid key", m.ProviderName)
}

// CallCount returns how many translations were requested
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockTranslator implements translation.Translator without any providers.
// Texts containing "fail" produce a failed result.
type MockTranslator struct {
	Keys map[string]bool

	mu       sync.Mutex
	Requests []translation.Request
}

// HasKey implements translation.Translator
func (m *MockTranslator) HasKey(provider string) bool {
	if provider == translation.ProviderAuto {
		return len(m.Keys) > 0
	}
	return m.Keys[provider]
}

// Translate implements translation.Translator
func (m *MockTranslator) Translate(ctx context.Context, req translation.Request) *translation.Result {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	result := &translation.Result{
		OriginalText:   req.Text,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		ProcessingTime: 0.01,
	}
	if strings.Contains(req.Text, "fail") {
		result.Error = req.Provider + ": API error (status 500): mock failure"
		result.ErrorKind = "provider_http"
		return result
	}

	result.Success = true
	result.TranslatedText = strings.ToUpper(req.Text)
	result.ProviderUsed = req.Provider
	result.Provider = req.Provider
	result.ModelUsed = "mock-model"
	result.ConfidenceScore = 0.9
	return result
}
