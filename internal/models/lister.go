package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// Model families that cannot translate text
var nonChatMarkers = []string{"tts", "audio", "whisper", "dall-e", "embedding", "moderation", "transcribe", "image"}

// Lister handles listing the models of one provider
type Lister struct {
	profile translation.Profile
	apiKey  string
	client  *openai.Client
}

// NewLister creates a model lister for an OpenAI compatible profile.
// httpClient may be nil.
func NewLister(profile translation.Profile, apiKey string, httpClient *http.Client) *Lister {
	config := openai.DefaultConfig(apiKey)
	if profile.BaseURL != "" {
		config.BaseURL = profile.BaseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &Lister{
		profile: profile,
		apiKey:  strings.TrimSpace(apiKey),
		client:  openai.NewClientWithConfig(config),
	}
}

// List returns the sorted chat model IDs available to the key
func (l *Lister) List(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("%s API key not found. Set %s or providers.%s.api_key in .itemtranslate.yaml",
			l.profile.DisplayName, l.profile.EnvVar, l.profile.Name)
	}
	if l.profile.Probe != translation.ProbeModels {
		return nil, fmt.Errorf("%s does not offer a model listing", l.profile.Name)
	}

	list, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s models: %w", l.profile.Name, err)
	}

	var chatModels []string
	for _, model := range list.Models {
		if isChatModel(model.ID) {
			chatModels = append(chatModels, model.ID)
		}
	}
	sort.Strings(chatModels)
	return chatModels, nil
}

func isChatModel(id string) bool {
	lower := strings.ToLower(id)
	for _, marker := range nonChatMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// Write prints models, marking the profile's default model
func (l *Lister) Write(w io.Writer, models []string) {
	fmt.Fprintf(w, "Available %s chat models:\n", l.profile.DisplayName)
	if len(models) == 0 {
		fmt.Fprintln(w, "  No chat models found")
		return
	}
	for _, model := range models {
		marker := ""
		if model == l.profile.DefaultModel {
			marker = " (default)"
		}
		fmt.Fprintf(w, "  %s%s\n", model, marker)
	}
}
