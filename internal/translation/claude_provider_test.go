package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClaudeTranslate(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var payload claudeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&payload)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model": "claude-3-5-haiku-20241022", "content": [{"type": "text", "text": "'Vis en acier'"}]}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider(testProfile(ProviderClaude, srv.URL), StaticKeys{ProviderClaude: "sk-ant"}, srv.Client())

	reply, err := p.Translate(context.Background(), "Steel screw", "fr", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if reply.Text != "Vis en acier" {
		t.Errorf("Expected normalized text, got %q", reply.Text)
	}
	if reply.Confidence != 0.97 {
		t.Errorf("Expected confidence 0.97, got %v", reply.Confidence)
	}
	if gotPath != "/messages" {
		t.Errorf("Expected /messages, got %s", gotPath)
	}
	if gotKey != "sk-ant" {
		t.Errorf("Expected x-api-key header, got %q", gotKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("Expected anthropic-version %s, got %q", anthropicVersion, gotVersion)
	}
	if payload.MaxTokens != 2000 || len(payload.Messages) != 1 || payload.Messages[0].Role != "user" {
		t.Errorf("Unexpected request payload: %+v", payload)
	}
	if !strings.Contains(payload.Messages[0].Content, "to French") {
		t.Errorf("Prompt does not name the target language: %q", payload.Messages[0].Content)
	}
}

func TestClaudeTranslate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"type": "error", "error": {"message": "rate limited"}}`, KindHTTP},
		{"no content", http.StatusOK, `{"content": []}`, KindEmptyResult},
		{"blank content", http.StatusOK, `{"content": [{"type": "text", "text": "  "}]}`, KindEmptyResult},
		{"not json", http.StatusOK, `<html>`, KindEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewClaudeProvider(testProfile(ProviderClaude, srv.URL), StaticKeys{ProviderClaude: "k"}, srv.Client())
			_, err := p.Translate(context.Background(), "hello", "fr", "en")

			if KindOf(err) != tt.wantKind {
				t.Errorf("Expected kind %v, got %v (%v)", tt.wantKind, KindOf(err), err)
			}
		})
	}
}

func TestClaudeTranslate_HTTPErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	p := NewClaudeProvider(testProfile(ProviderClaude, srv.URL), StaticKeys{ProviderClaude: "k"}, srv.Client())
	_, err := p.Translate(context.Background(), "hello", "fr", "en")

	want := "claude: API error (status 500): overloaded"
	if err == nil || err.Error() != want {
		t.Errorf("Expected %q, got %v", want, err)
	}
}

func TestClaudeValidate(t *testing.T) {
	var payload claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if r.Header.Get("x-api-key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "H"}]}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider(testProfile(ProviderClaude, srv.URL), nil, srv.Client())

	if err := p.Validate(context.Background(), "good"); err != nil {
		t.Errorf("Expected valid key, got %v", err)
	}
	if payload.MaxTokens != 1 {
		t.Errorf("Expected a one token probe, got max_tokens=%d", payload.MaxTokens)
	}

	err := p.Validate(context.Background(), "bad")
	if KindOf(err) != KindHTTP {
		t.Errorf("Expected HTTP error for bad key, got %v", err)
	}

	if err := p.Validate(context.Background(), " "); KindOf(err) != KindConfiguration {
		t.Errorf("Expected configuration error for blank key, got %v", err)
	}
}

func TestClaudeTranslate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewClaudeProvider(testProfile(ProviderClaude, url), StaticKeys{ProviderClaude: "k"}, nil)
	_, err := p.Translate(context.Background(), "hello", "fr", "en")

	if KindOf(err) != KindTransport {
		t.Errorf("Expected transport error, got %v", err)
	}
}
