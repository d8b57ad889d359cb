// Package processor connects the translation dispatcher to the record store.
// It resolves the per-invoice language and provider selectors, translates
// single items or whole invoices, and writes successful results back into
// the items' translation fields.
package processor
