package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func newChatServer(t *testing.T, status int, body string, seen *http.Request, seenBody *map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		if seenBody != nil {
			_ = json.NewDecoder(r.Body).Decode(seenBody)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testProfile(name, baseURL string) Profile {
	profile := DefaultProfiles()[name]
	profile.BaseURL = baseURL
	return profile
}

func TestOpenAICompatTranslate(t *testing.T) {
	var seen http.Request
	var payload map[string]any
	srv := newChatServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "llama-3.3-70b-versatile",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Translation: \"مسمار فولاذي\""}, "finish_reason": "stop"}]
	}`, &seen, &payload)

	p := NewOpenAICompatProvider(testProfile(ProviderGroq, srv.URL), StaticKeys{ProviderGroq: "test-key"}, srv.Client())

	reply, err := p.Translate(context.Background(), "Steel bolt", "ar", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if reply.Text != "مسمار فولاذي" {
		t.Errorf("Expected normalized text, got %q", reply.Text)
	}
	if reply.Provider != ProviderGroq {
		t.Errorf("Expected provider groq, got %q", reply.Provider)
	}
	if reply.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Unexpected model %q", reply.Model)
	}
	if reply.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %v", reply.Confidence)
	}

	if seen.URL.Path != "/chat/completions" {
		t.Errorf("Expected /chat/completions, got %s", seen.URL.Path)
	}
	if got := seen.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", got)
	}

	messages, _ := payload["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("Expected one message, got %v", payload["messages"])
	}
	content := messages[0].(map[string]any)["content"].(string)
	if !strings.Contains(content, "from English to Arabic") || !strings.Contains(content, "Steel bolt") {
		t.Errorf("Prompt missing languages or text: %q", content)
	}
}

func TestOpenAICompatTranslate_NoAPIKey(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	p := NewOpenAICompatProvider(testProfile(ProviderOpenAI, srv.URL), StaticKeys{ProviderOpenAI: "   "}, srv.Client())

	_, err := p.Translate(context.Background(), "hello", "fr", "en")
	if KindOf(err) != KindConfiguration {
		t.Fatalf("Expected configuration error, got %v", err)
	}
	if err.Error() != "openai: API key not configured" {
		t.Errorf("Unexpected error message: %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no HTTP calls, got %d", calls)
	}
}

func TestOpenAICompatTranslate_HTTPError(t *testing.T) {
	srv := newChatServer(t, http.StatusUnauthorized, `{"error": {"message": "Invalid API Key", "type": "invalid_request_error"}}`, nil, nil)

	p := NewOpenAICompatProvider(testProfile(ProviderDeepSeek, srv.URL), StaticKeys{ProviderDeepSeek: "bad"}, srv.Client())

	_, err := p.Translate(context.Background(), "hello", "fr", "en")

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("Expected *Error, got %T %v", err, err)
	}
	if terr.Kind != KindHTTP || terr.Status != http.StatusUnauthorized {
		t.Errorf("Expected HTTP 401, got kind=%v status=%d", terr.Kind, terr.Status)
	}
	if !strings.Contains(terr.Body, "Invalid API Key") {
		t.Errorf("Expected body to carry API message, got %q", terr.Body)
	}
	if terr.Provider != ProviderDeepSeek {
		t.Errorf("Expected provider deepseek, got %q", terr.Provider)
	}
}

func TestOpenAICompatTranslate_NonJSONErrorBody(t *testing.T) {
	srv := newChatServer(t, http.StatusBadGateway, `<html>Bad Gateway</html>`, nil, nil)

	p := NewOpenAICompatProvider(testProfile(ProviderGroq, srv.URL), StaticKeys{ProviderGroq: "k"}, srv.Client())

	_, err := p.Translate(context.Background(), "hello", "fr", "en")
	if KindOf(err) != KindHTTP {
		t.Fatalf("Expected HTTP error, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 502") || !strings.Contains(err.Error(), "Bad Gateway") {
		t.Errorf("Expected status and body in error, got %q", err.Error())
	}
}

func TestOpenAICompatTranslate_NonOKSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"created", http.StatusCreated},
		{"accepted", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newChatServer(t, tt.status, `{"id": "x", "model": "m", "choices": [{"message": {"role": "assistant", "content": "Bonjour"}}]}`, nil, nil)
			p := NewOpenAICompatProvider(testProfile(ProviderOpenAI, srv.URL), StaticKeys{ProviderOpenAI: "k"}, srv.Client())

			reply, err := p.Translate(context.Background(), "hello", "fr", "en")
			if reply != nil {
				t.Errorf("Expected no reply, got %+v", reply)
			}

			var terr *Error
			if !errors.As(err, &terr) {
				t.Fatalf("Expected *Error, got %T %v", err, err)
			}
			if terr.Kind != KindHTTP || terr.Status != tt.status {
				t.Errorf("Expected HTTP %d, got kind=%v status=%d", tt.status, terr.Kind, terr.Status)
			}
			if terr.Provider != ProviderOpenAI {
				t.Errorf("Expected provider openai, got %q", terr.Provider)
			}
		})
	}
}

func TestOpenAICompatTranslate_EmptyReply(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"id": "x", "model": "m", "choices": []}`},
		{"only label", `{"id": "x", "model": "m", "choices": [{"message": {"role": "assistant", "content": "Translation:  \"\" "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newChatServer(t, http.StatusOK, tt.body, nil, nil)
			p := NewOpenAICompatProvider(testProfile(ProviderOpenAI, srv.URL), StaticKeys{ProviderOpenAI: "k"}, srv.Client())

			_, err := p.Translate(context.Background(), "hello", "fr", "en")
			if KindOf(err) != KindEmptyResult {
				t.Errorf("Expected empty result error, got %v", err)
			}
		})
	}
}

func TestOpenAICompatValidate(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		status    int
		wantPath  string
		wantValid bool
	}{
		{"models probe ok", ProviderGroq, http.StatusOK, "/models", true},
		{"models probe rejected", ProviderOpenAI, http.StatusUnauthorized, "/models", false},
		{"chat probe ok", ProviderPerplexity, http.StatusOK, "/chat/completions", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen http.Request
			body := `{"object": "list", "data": []}`
			if tt.provider == ProviderPerplexity {
				body = `{"id": "x", "model": "sonar", "choices": [{"message": {"role": "assistant", "content": "H"}}]}`
			}
			if tt.status != http.StatusOK {
				body = `{"error": {"message": "bad key"}}`
			}
			srv := newChatServer(t, tt.status, body, &seen, nil)

			p := NewOpenAICompatProvider(testProfile(tt.provider, srv.URL), nil, srv.Client())
			err := p.Validate(context.Background(), "probe-key")

			if (err == nil) != tt.wantValid {
				t.Errorf("Validate() error = %v, wantValid %v", err, tt.wantValid)
			}
			if seen.URL.Path != tt.wantPath {
				t.Errorf("Expected probe path %s, got %s", tt.wantPath, seen.URL.Path)
			}
			if got := seen.Header.Get("Authorization"); got != "Bearer probe-key" {
				t.Errorf("Expected probe key to be sent, got %q", got)
			}
		})
	}
}

func TestOpenAICompatTranslate_Integration(t *testing.T) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GROQ_API_KEY not set")
	}

	p := NewOpenAICompatProvider(DefaultProfiles()[ProviderGroq], StaticKeys{ProviderGroq: apiKey}, nil)
	reply, err := p.Translate(context.Background(), "Stainless steel screw", "ar", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if reply.Text == "" {
		t.Error("Got empty translation")
	}
	t.Logf("Translation: %s", reply.Text)
}
