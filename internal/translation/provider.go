package translation

import (
	"context"
	"strings"
	"time"
)

// Provider names
const (
	ProviderGroq       = "groq"
	ProviderDeepSeek   = "deepseek"
	ProviderOpenAI     = "openai"
	ProviderClaude     = "claude"
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"

	// ProviderAuto picks the first configured provider from AutoOrder
	ProviderAuto = "auto"
)

const (
	// TranslateTimeout bounds one interactive translation call
	TranslateTimeout = 30 * time.Second
	// ValidateTimeout bounds one key-validation probe
	ValidateTimeout = 10 * time.Second
)

// AutoOrder is the quality/availability order used by the "auto" provider
var AutoOrder = []string{ProviderGroq, ProviderDeepSeek, ProviderOpenAI, ProviderClaude, ProviderPerplexity}

// DefaultFallbackOrder is tried after the preferred provider fails.
// Claude and Perplexity only join the chain through an explicit fallback order.
var DefaultFallbackOrder = []string{ProviderGroq, ProviderDeepSeek, ProviderOpenAI}

// Reply is what a single provider reports for a successful translation
type Reply struct {
	Text       string
	Confidence float64
	Model      string
	Provider   string
}

// Provider is one hosted LLM translation backend
type Provider interface {
	// Name returns the provider name used for lookup and labels
	Name() string

	// Profile returns the static vendor description
	Profile() Profile

	// Translate translates text with the configured API key
	Translate(ctx context.Context, text, targetLang, sourceLang string) (*Reply, error)

	// Validate issues one minimal request with apiKey and returns nil on HTTP 200
	Validate(ctx context.Context, apiKey string) error
}

// ProbeKind selects how Validate talks to a vendor
type ProbeKind int

const (
	// ProbeModels lists models, the cheapest authenticated call
	ProbeModels ProbeKind = iota
	// ProbeChat sends a one token chat completion
	ProbeChat
)

// Profile is the immutable description of one vendor
type Profile struct {
	Name         string
	DisplayName  string
	BaseURL      string
	AuthScheme   string
	DefaultModel string
	// Confidence is a static display hint, not a measured probability
	Confidence float64
	Speed      string
	Quality    string
	Cost       string
	EnvVar     string
	Probe      ProbeKind
}

// DefaultProfiles returns the built-in vendor profiles keyed by name
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		ProviderGroq: {
			Name:         ProviderGroq,
			DisplayName:  "Groq",
			BaseURL:      "https://api.groq.com/openai/v1",
			AuthScheme:   "bearer",
			DefaultModel: "llama-3.3-70b-versatile",
			Confidence:   0.95,
			Speed:        "very fast",
			Quality:      "good",
			Cost:         "free tier",
			EnvVar:       "GROQ_API_KEY",
			Probe:        ProbeModels,
		},
		ProviderDeepSeek: {
			Name:         ProviderDeepSeek,
			DisplayName:  "DeepSeek",
			BaseURL:      "https://api.deepseek.com/v1",
			AuthScheme:   "bearer",
			DefaultModel: "deepseek-chat",
			Confidence:   0.90,
			Speed:        "fast",
			Quality:      "very good",
			Cost:         "low",
			EnvVar:       "DEEPSEEK_API_KEY",
			Probe:        ProbeModels,
		},
		ProviderOpenAI: {
			Name:         ProviderOpenAI,
			DisplayName:  "OpenAI",
			BaseURL:      "https://api.openai.com/v1",
			AuthScheme:   "bearer",
			DefaultModel: "gpt-4o-mini",
			Confidence:   0.96,
			Speed:        "fast",
			Quality:      "excellent",
			Cost:         "medium",
			EnvVar:       "OPENAI_API_KEY",
			Probe:        ProbeModels,
		},
		ProviderClaude: {
			Name:         ProviderClaude,
			DisplayName:  "Anthropic Claude",
			BaseURL:      "https://api.anthropic.com/v1",
			AuthScheme:   "x-api-key",
			DefaultModel: "claude-3-5-haiku-20241022",
			Confidence:   0.97,
			Speed:        "medium",
			Quality:      "excellent",
			Cost:         "medium",
			EnvVar:       "CLAUDE_API_KEY",
			Probe:        ProbeChat,
		},
		ProviderPerplexity: {
			Name:         ProviderPerplexity,
			DisplayName:  "Perplexity",
			BaseURL:      "https://api.perplexity.ai",
			AuthScheme:   "bearer",
			DefaultModel: "sonar",
			Confidence:   0.92,
			Speed:        "medium",
			Quality:      "good",
			Cost:         "medium",
			EnvVar:       "PERPLEXITY_API_KEY",
			Probe:        ProbeChat,
		},
		ProviderGemini: {
			Name:         ProviderGemini,
			DisplayName:  "Google Gemini",
			AuthScheme:   "x-goog-api-key",
			DefaultModel: "gemini-2.0-flash",
			Confidence:   0.94,
			Speed:        "fast",
			Quality:      "very good",
			Cost:         "free tier",
			EnvVar:       "GEMINI_API_KEY",
			Probe:        ProbeChat,
		},
	}
}

// KeySource resolves API keys by provider name
type KeySource interface {
	APIKey(provider string) string
}

// StaticKeys is a fixed KeySource, handy for embedding and tests
type StaticKeys map[string]string

// APIKey implements KeySource
func (s StaticKeys) APIKey(provider string) string {
	return s[normalizeName(provider)]
}

// HasKey reports whether keys holds a non-blank key for provider
func HasKey(keys KeySource, provider string) bool {
	if keys == nil {
		return false
	}
	return strings.TrimSpace(keys.APIKey(normalizeName(provider))) != ""
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
