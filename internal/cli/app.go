package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/itemtranslate/internal/logging"
	"codeberg.org/snonux/itemtranslate/internal/metrics"
	"codeberg.org/snonux/itemtranslate/internal/processor"
	"codeberg.org/snonux/itemtranslate/internal/store"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// App bundles the wired application components
type App struct {
	Settings   Settings
	Logger     zerolog.Logger
	Keys       translation.KeySource
	Registry   *translation.Registry
	Dispatcher *translation.Dispatcher
	Metrics    *prometheus.Registry
	Recorder   *metrics.Recorder

	store     *store.Store
	processor *processor.Processor
}

// NewApp wires registry, dispatcher, metrics and logging from settings.
// Logs go to logOut, stderr when nil.
func NewApp(settings Settings, keys translation.KeySource, logOut io.Writer) (*App, error) {
	logger, err := logging.New(settings.LogLevel, settings.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	opts := translation.RegistryOptions{
		BaseURLs: settings.BaseURLs,
		Models:   settings.Models,
	}
	if settings.Breaker {
		breaker := translation.DefaultBreakerSettings()
		breaker.OnStateChange = func(provider, from, to string) {
			recorder.BreakerStateChanged(provider, from, to)
			logger.Warn().Str("provider", provider).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
		}
		opts.Breaker = &breaker
	}
	registry := translation.NewDefaultRegistry(keys, opts)

	dispatcher := translation.NewDispatcher(registry, keys,
		translation.WithLogger(logger),
		translation.WithRecorder(recorder),
		translation.WithFallbackOrder(settings.FallbackOrder),
		translation.WithBulkRate(settings.BulkRate),
	)

	return &App{
		Settings:   settings,
		Logger:     logger,
		Keys:       keys,
		Registry:   registry,
		Dispatcher: dispatcher,
		Metrics:    reg,
		Recorder:   recorder,
	}, nil
}

// Store opens the record store on first use
func (a *App) Store(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	if a.Settings.StorePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.Settings.StorePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	s, err := store.Open(ctx, a.Settings.StorePath)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", a.Settings.StorePath).Msg("record store opened")
	a.store = s
	return s, nil
}

// Processor returns the invoice processor, opening the store if needed
func (a *App) Processor(ctx context.Context) (*processor.Processor, error) {
	if a.processor != nil {
		return a.processor, nil
	}

	s, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	a.processor = processor.NewProcessor(a.Dispatcher, s, processor.Defaults{
		TargetLanguage: a.Settings.TargetLanguage,
		SourceLanguage: a.Settings.SourceLanguage,
		Provider:       a.Settings.Provider,
		BulkRate:       a.Settings.BulkRate,
	}, a.Logger)
	return a.processor, nil
}

// Close releases the store
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	a.processor = nil
	return err
}
