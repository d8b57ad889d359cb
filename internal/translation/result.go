package translation

import "strings"

// Default request values
const (
	DefaultTargetLanguage = "ar"
	DefaultSourceLanguage = "en"
	DefaultProvider       = ProviderGroq

	// MaxTextLength is the longest text (in characters) sent to a provider
	MaxTextLength    = 5000
	truncationMarker = "..."
)

// Request is one translation request
type Request struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	SourceLanguage string `json:"source_language"`
	Provider       string `json:"provider"`
}

func (r Request) withDefaults() Request {
	r.TargetLanguage = strings.TrimSpace(r.TargetLanguage)
	if r.TargetLanguage == "" {
		r.TargetLanguage = DefaultTargetLanguage
	}
	r.SourceLanguage = strings.TrimSpace(r.SourceLanguage)
	if r.SourceLanguage == "" {
		r.SourceLanguage = DefaultSourceLanguage
	}
	r.Provider = normalizeName(r.Provider)
	if r.Provider == "" {
		r.Provider = DefaultProvider
	}
	return r
}

// Result is the outcome of one dispatched translation
type Result struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translated_text,omitempty"`
	OriginalText   string `json:"original_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	// ProviderUsed is the display label, "requested (fallback: actual)" after a fallback
	ProviderUsed string `json:"provider_used,omitempty"`
	// Provider is the provider that actually produced TranslatedText
	Provider        string   `json:"provider,omitempty"`
	ModelUsed       string   `json:"model_used,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	ProcessingTime  float64  `json:"processing_time"`
	Truncated       bool     `json:"truncated,omitempty"`
	Warning         string   `json:"warning,omitempty"`
	Error           string   `json:"error,omitempty"`
	ErrorKind       string   `json:"error_kind,omitempty"`
	Attempted       []string `json:"attempted_providers,omitempty"`
}

// TruncateText cuts text longer than MaxTextLength characters and appends
// an ellipsis marker
func TruncateText(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) <= MaxTextLength {
		return text, false
	}
	return string(runes[:MaxTextLength]) + truncationMarker, true
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
