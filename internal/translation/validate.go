package translation

import (
	"context"
	"strings"
)

// Validation is the outcome of a key validation probe
type Validation struct {
	Provider string `json:"provider"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

// ValidateKey probes provider with apiKey and reports HTTP 200 as valid
func (r *Registry) ValidateKey(ctx context.Context, provider, apiKey string) Validation {
	name := normalizeName(provider)
	result := Validation{Provider: name}

	if strings.TrimSpace(apiKey) == "" {
		result.Error = "API key is required"
		return result
	}

	p, err := r.Provider(name)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if err := p.Validate(ctx, apiKey); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Valid = true
	return result
}
