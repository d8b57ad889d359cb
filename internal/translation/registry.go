package translation

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Registry stores translation providers keyed by name
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// RegistryOptions tunes the providers built by NewDefaultRegistry
type RegistryOptions struct {
	// HTTPClient replaces the default client for every vendor
	HTTPClient *http.Client
	// BaseURLs overrides vendor endpoints by provider name
	BaseURLs map[string]string
	// Models overrides the default model by provider name
	Models map[string]string
	// Breaker wraps every provider in a circuit breaker when set
	Breaker *BreakerSettings
}

// NewDefaultRegistry registers all built-in vendors
func NewDefaultRegistry(keys KeySource, opts RegistryOptions) *Registry {
	registry := NewRegistry()

	for name, profile := range DefaultProfiles() {
		if url := strings.TrimSpace(opts.BaseURLs[name]); url != "" {
			profile.BaseURL = url
		}
		if model := strings.TrimSpace(opts.Models[name]); model != "" {
			profile.DefaultModel = model
		}

		var provider Provider
		switch name {
		case ProviderClaude:
			provider = NewClaudeProvider(profile, keys, opts.HTTPClient)
		case ProviderGemini:
			provider = NewGeminiProvider(profile, keys, opts.HTTPClient)
		default:
			provider = NewOpenAICompatProvider(profile, keys, opts.HTTPClient)
		}

		if opts.Breaker != nil {
			provider = WithBreaker(provider, *opts.Breaker)
		}
		_ = registry.Register(provider)
	}

	return registry
}

// Register adds one provider, replacing any provider with the same name
func (r *Registry) Register(provider Provider) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}
	name := normalizeName(provider.Name())
	if name == "" {
		return fmt.Errorf("provider name is required")
	}
	r.providers[name] = provider
	return nil
}

// Provider resolves a provider by name
func (r *Registry) Provider(name string) (Provider, error) {
	if r == nil || len(r.providers) == 0 {
		return nil, fmt.Errorf("no translation providers are registered")
	}

	resolved := normalizeName(name)
	if provider, ok := r.providers[resolved]; ok {
		return provider, nil
	}

	return nil, fmt.Errorf("translation provider %q is not registered (available: %s)", resolved, strings.Join(r.Names(), ", "))
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderInfo is one row of the provider capability table
type ProviderInfo struct {
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	Configured   bool    `json:"configured"`
	DefaultModel string  `json:"default_model"`
	Confidence   float64 `json:"confidence"`
	Speed        string  `json:"speed"`
	Quality      string  `json:"quality"`
	Cost         string  `json:"cost"`
	EnvVar       string  `json:"env_var"`
}

// Describe returns the capability/status table. AutoOrder providers come
// first, any additional providers follow alphabetically.
func (r *Registry) Describe(keys KeySource) []ProviderInfo {
	seen := make(map[string]bool)
	ordered := make([]string, 0, len(r.providers))
	for _, name := range AutoOrder {
		if _, ok := r.providers[name]; ok {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	for _, name := range r.Names() {
		if !seen[name] {
			ordered = append(ordered, name)
		}
	}

	infos := make([]ProviderInfo, 0, len(ordered))
	for _, name := range ordered {
		profile := r.providers[name].Profile()
		infos = append(infos, ProviderInfo{
			Name:         name,
			DisplayName:  profile.DisplayName,
			Configured:   HasKey(keys, name),
			DefaultModel: profile.DefaultModel,
			Confidence:   profile.Confidence,
			Speed:        profile.Speed,
			Quality:      profile.Quality,
			Cost:         profile.Cost,
			EnvVar:       profile.EnvVar,
		})
	}
	return infos
}
