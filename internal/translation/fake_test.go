package translation

import (
	"context"
	"sync"
	"time"
)

// fakeProvider replies with a fixed text or error and records inputs
type fakeProvider struct {
	name  string
	reply string
	err   error

	mu    sync.Mutex
	calls []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Profile() Profile {
	return Profile{Name: f.name, DisplayName: f.name, DefaultModel: f.name + "-model", Confidence: 0.9}
}

func (f *fakeProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (*Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &Reply{Text: f.reply, Confidence: 0.9, Model: f.name + "-model", Provider: f.name}, nil
}

func (f *fakeProvider) Validate(ctx context.Context, apiKey string) error {
	if apiKey == "good" {
		return nil
	}
	return httpError(f.name, 401, "bad key")
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func okProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, reply: "translated by " + name}
}

func failingProvider(name string, status int) *fakeProvider {
	return &fakeProvider{name: name, err: httpError(name, status, "boom")}
}

// newTestDispatcher registers providers and gives a key to every name in keyed
func newTestDispatcher(providers []*fakeProvider, keyed []string, opts ...Option) *Dispatcher {
	registry := NewRegistry()
	for _, p := range providers {
		_ = registry.Register(p)
	}
	keys := StaticKeys{}
	for _, name := range keyed {
		keys[name] = "key-" + name
	}
	return NewDispatcher(registry, keys, opts...)
}

type recordedAttempt struct {
	provider string
	outcome  string
}

type fakeRecorder struct {
	mu        sync.Mutex
	attempts  []recordedAttempt
	fallbacks [][2]string
}

func (r *fakeRecorder) ObserveAttempt(provider, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, recordedAttempt{provider, outcome})
}

func (r *fakeRecorder) ObserveFallback(requested, actual string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, [2]string{requested, actual})
}
