package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/itemtranslate/internal/store"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// ErrNoItems is returned when an invoice has nothing to translate
var ErrNoItems = errors.New("invoice has no items")

// ItemStore is the part of the record store the processor needs
type ItemStore interface {
	GetInvoice(ctx context.Context, name string) (*store.Invoice, error)
	GetItem(ctx context.Context, invoice, code string) (*store.Item, error)
	ListItems(ctx context.Context, invoice string) ([]store.Item, error)
	UpsertItem(ctx context.Context, item store.Item) (string, error)
	SaveTranslation(ctx context.Context, invoice, code string, result *translation.Result) error
}

// Defaults are used when neither the caller nor the invoice selects a
// language or provider
type Defaults struct {
	TargetLanguage string
	SourceLanguage string
	Provider       string
	// BulkRate caps provider calls per second while translating an invoice
	BulkRate float64
}

// Processor handles translating stored invoice items
type Processor struct {
	translator translation.Translator
	bulk       *translation.BulkOrchestrator
	store      ItemStore
	defaults   Defaults
	logger     zerolog.Logger
}

// NewProcessor creates a new item processor
func NewProcessor(translator translation.Translator, items ItemStore, defaults Defaults, logger zerolog.Logger) *Processor {
	return &Processor{
		translator: translator,
		bulk:       translation.NewBulkOrchestrator(translator, logger).WithRateLimit(defaults.BulkRate),
		store:      items,
		defaults:   defaults,
		logger:     logger,
	}
}

// InvoiceReport is the outcome of translating an invoice
type InvoiceReport struct {
	Invoice string                  `json:"invoice"`
	Bulk    *translation.BulkResult `json:"bulk"`
	Saved   int                     `json:"saved"`
	Skipped int                     `json:"skipped"`
}

// InvoiceOptions tunes TranslateInvoice
type InvoiceOptions struct {
	// SkipTranslated leaves items with a stored translation untouched
	SkipTranslated bool
}

// selectors resolves target language and provider: explicit values first,
// then the invoice selectors, then the processor defaults
func (p *Processor) selectors(ctx context.Context, invoice, target, provider string) (string, string) {
	target = strings.TrimSpace(target)
	provider = strings.TrimSpace(provider)

	if target == "" || provider == "" {
		if inv, err := p.store.GetInvoice(ctx, invoice); err == nil {
			if target == "" {
				target = inv.TargetLanguage
			}
			if provider == "" {
				provider = inv.Provider
			}
		}
	}

	if target == "" {
		target = p.defaults.TargetLanguage
	}
	if provider == "" {
		provider = p.defaults.Provider
	}
	return target, provider
}

// TranslateItem translates one stored item and persists a successful
// result. A failed translation is returned as a Result, not an error.
func (p *Processor) TranslateItem(ctx context.Context, invoice, code, target, provider string) (*translation.Result, error) {
	item, err := p.store.GetItem(ctx, invoice, code)
	if err != nil {
		return nil, err
	}

	target, provider = p.selectors(ctx, invoice, target, provider)

	result := p.translator.Translate(ctx, translation.Request{
		Text:           item.Description,
		TargetLanguage: target,
		SourceLanguage: p.defaults.SourceLanguage,
		Provider:       provider,
	})

	if !result.Success {
		p.logger.Warn().Str("invoice", invoice).Str("item", code).Str("error", result.Error).Msg("item translation failed")
		return result, nil
	}

	if err := p.store.SaveTranslation(ctx, invoice, code, result); err != nil {
		return result, fmt.Errorf("failed to store translation: %w", err)
	}
	p.logger.Info().Str("invoice", invoice).Str("item", code).Str("provider", result.ProviderUsed).Msg("item translated")
	return result, nil
}

// TranslateInvoice translates every item of invoice in order and persists
// the successful results
func (p *Processor) TranslateInvoice(ctx context.Context, invoice, target, provider string, opts InvoiceOptions) (*InvoiceReport, error) {
	stored, err := p.store.ListItems(ctx, invoice)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("invoice %s: %w", invoice, ErrNoItems)
	}

	target, provider = p.selectors(ctx, invoice, target, provider)
	report := &InvoiceReport{Invoice: invoice}

	items := make([]translation.Item, 0, len(stored))
	for _, item := range stored {
		if opts.SkipTranslated && item.Translated() {
			report.Skipped++
			continue
		}
		items = append(items, translation.Item{ID: item.Code, Text: item.Description})
	}

	p.logger.Info().Str("invoice", invoice).Int("items", len(items)).Int("skipped", report.Skipped).
		Str("target", target).Str("provider", provider).Msg("translating invoice")

	report.Bulk = p.bulk.Translate(ctx, items, target, provider)

	for _, r := range report.Bulk.Results {
		if !r.Result.Success {
			continue
		}
		if err := p.store.SaveTranslation(ctx, invoice, r.ItemID, r.Result); err != nil {
			return report, fmt.Errorf("failed to store translation of %s: %w", r.ItemID, err)
		}
		report.Saved++
	}

	p.logger.Info().Str("invoice", invoice).Int("saved", report.Saved).
		Int("failed", report.Bulk.Summary.FailedTranslations).Msg("invoice translated")
	return report, nil
}

// ImportItems stores items under invoice and returns their codes in order
func (p *Processor) ImportItems(ctx context.Context, invoice string, items []translation.Item) ([]string, error) {
	codes := make([]string, 0, len(items))
	for _, item := range items {
		code, err := p.store.UpsertItem(ctx, store.Item{Invoice: invoice, Code: item.ID, Description: item.Text})
		if err != nil {
			return codes, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}
