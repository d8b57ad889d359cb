package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Recorder receives dispatch outcomes, typically prometheus instruments
type Recorder interface {
	ObserveAttempt(provider, outcome string, elapsed time.Duration)
	ObserveFallback(requested, actual string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, string, time.Duration) {}
func (nopRecorder) ObserveFallback(string, string)               {}

// Dispatcher sends a translation to the preferred provider and walks the
// fallback order when it fails
type Dispatcher struct {
	registry      *Registry
	keys          KeySource
	fallbackOrder []string
	autoOrder     []string
	logger        zerolog.Logger
	recorder      Recorder
	bulkRate      float64
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger, the default discards everything
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithFallbackOrder replaces DefaultFallbackOrder. An empty order is ignored.
func WithFallbackOrder(order []string) Option {
	return func(d *Dispatcher) {
		if cleaned := cleanOrder(order); len(cleaned) > 0 {
			d.fallbackOrder = cleaned
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(recorder Recorder) Option {
	return func(d *Dispatcher) {
		if recorder != nil {
			d.recorder = recorder
		}
	}
}

// WithBulkRate limits bulk runs to perSecond provider calls
func WithBulkRate(perSecond float64) Option {
	return func(d *Dispatcher) { d.bulkRate = perSecond }
}

// NewDispatcher creates a dispatcher over registry using keys to decide
// which fallback candidates are usable
func NewDispatcher(registry *Registry, keys KeySource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:      registry,
		keys:          keys,
		fallbackOrder: append([]string(nil), DefaultFallbackOrder...),
		autoOrder:     append([]string(nil), AutoOrder...),
		logger:        zerolog.Nop(),
		recorder:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FallbackOrder returns the configured fallback order
func (d *Dispatcher) FallbackOrder() []string {
	return append([]string(nil), d.fallbackOrder...)
}

// HasKey reports whether provider has a usable key. For "auto" it reports
// whether any provider of the auto order is configured.
func (d *Dispatcher) HasKey(provider string) bool {
	provider = normalizeName(provider)
	if provider == ProviderAuto {
		for _, name := range d.autoOrder {
			if HasKey(d.keys, name) {
				return true
			}
		}
		return false
	}
	return HasKey(d.keys, provider)
}

// Translate dispatches one request. It never returns provider errors to
// the caller, they are folded into the Result.
func (d *Dispatcher) Translate(ctx context.Context, req Request) *Result {
	started := time.Now()
	req = req.withDefaults()

	result := &Result{
		OriginalText:   req.Text,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	}
	defer func() {
		result.ProcessingTime = time.Since(started).Seconds()
	}()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		fail(result, inputError("text is required"))
		return result
	}

	text, truncated := TruncateText(text)
	if truncated {
		result.Truncated = true
		d.logger.Debug().Int("limit", MaxTextLength).Msg("text truncated before translation")
	}

	if req.Provider == ProviderAuto {
		d.translateAuto(ctx, req, text, result)
		return result
	}

	result.Attempted = []string{req.Provider}
	reply, primaryErr := d.attempt(ctx, req.Provider, text, req)
	if primaryErr == nil {
		succeed(result, reply, req.Provider)
		return result
	}

	d.logger.Warn().Err(primaryErr).Str("provider", req.Provider).Msg("primary provider failed, trying fallbacks")

	for _, candidate := range d.fallbackOrder {
		if candidate == req.Provider {
			continue
		}
		if !HasKey(d.keys, candidate) {
			d.logger.Debug().Str("provider", candidate).Msg("skipping fallback without API key")
			continue
		}

		result.Attempted = append(result.Attempted, candidate)
		reply, err := d.attempt(ctx, candidate, text, req)
		if err != nil {
			d.logger.Warn().Err(err).Str("provider", candidate).Msg("fallback provider failed")
			continue
		}

		succeed(result, reply, fmt.Sprintf("%s (fallback: %s)", req.Provider, candidate))
		result.Warning = fmt.Sprintf("%s failed: %v", req.Provider, primaryErr)
		d.recorder.ObserveFallback(req.Provider, candidate)
		d.logger.Info().Str("requested", req.Provider).Str("actual", candidate).Msg("translated via fallback provider")
		return result
	}

	fail(result, primaryErr)
	result.Error = fmt.Sprintf("%v; attempted providers: %s", primaryErr, strings.Join(result.Attempted, ", "))
	return result
}

// translateAuto tries the auto order without a further fallback chain
func (d *Dispatcher) translateAuto(ctx context.Context, req Request, text string, result *Result) {
	var lastErr error
	for _, candidate := range d.autoOrder {
		if !HasKey(d.keys, candidate) {
			continue
		}

		result.Attempted = append(result.Attempted, candidate)
		reply, err := d.attempt(ctx, candidate, text, req)
		if err != nil {
			d.logger.Warn().Err(err).Str("provider", candidate).Msg("auto provider failed")
			lastErr = err
			continue
		}

		succeed(result, reply, candidate)
		return
	}

	if lastErr == nil {
		fail(result, configError(ProviderAuto, "no translation provider is configured"))
		return
	}
	fail(result, lastErr)
	result.Error = fmt.Sprintf("%v; attempted providers: %s", lastErr, strings.Join(result.Attempted, ", "))
}

// attempt runs one provider and records the outcome
func (d *Dispatcher) attempt(ctx context.Context, name, text string, req Request) (*Reply, error) {
	provider, err := d.registry.Provider(name)
	if err != nil {
		return nil, configError(name, err.Error())
	}

	started := time.Now()
	reply, err := provider.Translate(ctx, text, req.TargetLanguage, req.SourceLanguage)
	elapsed := time.Since(started)

	if err != nil {
		d.recorder.ObserveAttempt(name, KindOf(err).String(), elapsed)
		return nil, err
	}
	if reply == nil || strings.TrimSpace(reply.Text) == "" {
		d.recorder.ObserveAttempt(name, KindEmptyResult.String(), elapsed)
		return nil, emptyResultError(name)
	}

	if reply.Provider == "" {
		reply.Provider = name
	}
	d.recorder.ObserveAttempt(name, "success", elapsed)
	return reply, nil
}

func succeed(result *Result, reply *Reply, label string) {
	result.Success = true
	result.TranslatedText = reply.Text
	result.ProviderUsed = label
	result.Provider = reply.Provider
	result.ModelUsed = reply.Model
	result.ConfidenceScore = clampConfidence(reply.Confidence)
	result.Error = ""
	result.ErrorKind = ""
}

func fail(result *Result, err error) {
	result.Success = false
	result.Error = err.Error()
	result.ErrorKind = KindOf(err).String()
}

func cleanOrder(order []string) []string {
	seen := make(map[string]bool)
	cleaned := make([]string, 0, len(order))
	for _, name := range order {
		name = normalizeName(name)
		if name == "" || name == ProviderAuto || seen[name] {
			continue
		}
		seen[name] = true
		cleaned = append(cleaned, name)
	}
	return cleaned
}
