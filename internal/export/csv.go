package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"codeberg.org/snonux/itemtranslate/internal"
	"codeberg.org/snonux/itemtranslate/internal/store"
)

// Options configures a CSV export
type Options struct {
	IncludeHeaders bool // Write a header row
	OnlyTranslated bool // Skip items without a stored translation
}

// DefaultOptions returns the export defaults
func DefaultOptions() Options {
	return Options{IncludeHeaders: true}
}

var headers = []string{
	"item_code", "description", "target_language", "translated_description",
	"translation_provider", "translation_model", "confidence", "translated_at",
}

// WriteCSV writes items as CSV rows and returns the number of rows written,
// headers excluded
func WriteCSV(w io.Writer, items []store.Item, opts Options) (int, error) {
	writer := csv.NewWriter(w)

	if opts.IncludeHeaders {
		if err := writer.Write(headers); err != nil {
			return 0, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	written := 0
	for _, item := range items {
		if opts.OnlyTranslated && !item.Translated() {
			continue
		}
		if err := writer.Write(record(item)); err != nil {
			return written, fmt.Errorf("failed to write item %s: %w", item.Code, err)
		}
		written++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return written, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return written, nil
}

func record(item store.Item) []string {
	confidence := ""
	translatedAt := ""
	if item.Translated() {
		confidence = strconv.FormatFloat(item.Confidence, 'f', 2, 64)
	}
	if item.TranslatedAt != nil {
		translatedAt = item.TranslatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}

	return []string{
		item.Code,
		item.Description,
		item.TargetLanguage,
		item.TranslatedDescription,
		item.Provider,
		item.Model,
		confidence,
		translatedAt,
	}
}

// ExportFile writes items to path
func ExportFile(path string, items []store.Item, opts Options) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create CSV file: %w", err)
	}

	n, err := WriteCSV(file, items, opts)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close CSV file: %w", closeErr)
	}
	return n, err
}

// FileName returns the default export file name for an invoice
func FileName(invoice string) string {
	return internal.SanitizeFilename(invoice) + "_translations.csv"
}
