package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Item is one record of a bulk translation
type Item struct {
	ID   string `json:"item_code"`
	Text string `json:"description"`
}

// ItemResult is the outcome for one item, in input order
type ItemResult struct {
	ItemID string  `json:"item_code"`
	Result *Result `json:"result"`
}

// BulkSummary aggregates a bulk run
type BulkSummary struct {
	TotalItems             int     `json:"total_items"`
	SuccessfulTranslations int     `json:"successful_translations"`
	FailedTranslations     int     `json:"failed_translations"`
	AverageProcessingTime  float64 `json:"average_processing_time"`
}

// BulkResult is the outcome of a bulk run
type BulkResult struct {
	Provider       string       `json:"provider"`
	TargetLanguage string       `json:"target_language"`
	Results        []ItemResult `json:"results"`
	Summary        BulkSummary  `json:"summary"`
}

// Translator translates single requests. *Dispatcher implements it.
type Translator interface {
	Translate(ctx context.Context, req Request) *Result
	HasKey(provider string) bool
}

// BulkOrchestrator applies a Translator to items strictly in input order
type BulkOrchestrator struct {
	translator Translator
	logger     zerolog.Logger
	limiter    *rate.Limiter
}

// NewBulkOrchestrator creates a bulk orchestrator
func NewBulkOrchestrator(translator Translator, logger zerolog.Logger) *BulkOrchestrator {
	return &BulkOrchestrator{translator: translator, logger: logger}
}

// WithRateLimit paces provider calls to perSecond. Zero or less disables pacing.
func (b *BulkOrchestrator) WithRateLimit(perSecond float64) *BulkOrchestrator {
	if perSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	} else {
		b.limiter = nil
	}
	return b
}

// Translate runs every item through the translator. A missing key for the
// requested provider fails every item without a single network call.
// One item's failure never aborts the batch.
func (b *BulkOrchestrator) Translate(ctx context.Context, items []Item, targetLang, provider string) *BulkResult {
	req := Request{TargetLanguage: targetLang, Provider: provider}.withDefaults()

	bulk := &BulkResult{
		Provider:       req.Provider,
		TargetLanguage: req.TargetLanguage,
		Results:        make([]ItemResult, 0, len(items)),
	}
	bulk.Summary.TotalItems = len(items)

	if !b.translator.HasKey(req.Provider) {
		msg := fmt.Sprintf("%s: API key not configured", req.Provider)
		b.logger.Warn().Str("provider", req.Provider).Int("items", len(items)).Msg("bulk translation skipped, provider not configured")
		for _, item := range items {
			bulk.Results = append(bulk.Results, ItemResult{
				ItemID: item.ID,
				Result: &Result{
					OriginalText:   item.Text,
					SourceLanguage: req.SourceLanguage,
					TargetLanguage: req.TargetLanguage,
					Error:          msg,
					ErrorKind:      KindConfiguration.String(),
				},
			})
		}
		bulk.Summary.FailedTranslations = len(items)
		return bulk
	}

	var totalTime float64
	for i, item := range items {
		result := b.translateItem(ctx, item, req)

		if result.Success {
			bulk.Summary.SuccessfulTranslations++
			totalTime += result.ProcessingTime
		} else {
			bulk.Summary.FailedTranslations++
			b.logger.Debug().Str("item", item.ID).Str("error", result.Error).Msg("bulk item failed")
		}

		bulk.Results = append(bulk.Results, ItemResult{ItemID: item.ID, Result: result})
		b.logger.Debug().Int("index", i+1).Int("total", len(items)).Str("item", item.ID).Bool("success", result.Success).Msg("bulk progress")
	}

	bulk.Summary.AverageProcessingTime = totalTime / float64(max(bulk.Summary.SuccessfulTranslations, 1))
	return bulk
}

func (b *BulkOrchestrator) translateItem(ctx context.Context, item Item, req Request) *Result {
	if strings.TrimSpace(item.Text) == "" {
		return &Result{
			SourceLanguage: req.SourceLanguage,
			TargetLanguage: req.TargetLanguage,
			Error:          "no text",
			ErrorKind:      KindInput.String(),
		}
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return &Result{
				OriginalText:   item.Text,
				SourceLanguage: req.SourceLanguage,
				TargetLanguage: req.TargetLanguage,
				Error:          fmt.Sprintf("rate limit wait: %v", err),
				ErrorKind:      KindTransport.String(),
			}
		}
	}

	return b.translator.Translate(ctx, Request{
		Text:           item.Text,
		TargetLanguage: req.TargetLanguage,
		SourceLanguage: req.SourceLanguage,
		Provider:       req.Provider,
	})
}

// TranslateBulk runs a bulk translation through this dispatcher
func (d *Dispatcher) TranslateBulk(ctx context.Context, items []Item, targetLang, provider string) *BulkResult {
	return NewBulkOrchestrator(d, d.logger).WithRateLimit(d.bulkRate).Translate(ctx, items, targetLang, provider)
}
