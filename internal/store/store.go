package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/itemtranslate/internal"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// ErrNotFound is returned when an invoice or item does not exist
var ErrNotFound = errors.New("not found")

// Invoice carries the invoice-level translation selectors
type Invoice struct {
	Name           string `json:"name"`
	TargetLanguage string `json:"target_language"`
	Provider       string `json:"translation_provider"`
}

// Item is one invoice line with its translation fields
type Item struct {
	Invoice               string     `json:"invoice"`
	Code                  string     `json:"item_code"`
	Description           string     `json:"description"`
	TargetLanguage        string     `json:"target_language,omitempty"`
	TranslatedDescription string     `json:"translated_description,omitempty"`
	Provider              string     `json:"translation_provider,omitempty"`
	Model                 string     `json:"translation_model,omitempty"`
	Confidence            float64    `json:"confidence,omitempty"`
	TranslatedAt          *time.Time `json:"translated_at,omitempty"`
}

// Translated reports whether the item holds a stored translation
func (i Item) Translated() bool {
	return i.TranslatedDescription != ""
}

// Stats summarizes stored translations
type Stats struct {
	Invoices   int            `json:"invoices"`
	Items      int            `json:"items"`
	Translated int            `json:"translated"`
	ByProvider map[string]int `json:"by_provider"`
	ByLanguage map[string]int `json:"by_language"`
}

// Store persists invoices and their items in SQLite
type Store struct {
	db *sql.DB
}

// New wraps an already opened database. It does not migrate.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables when missing
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS invoices (
			name text PRIMARY KEY,
			target_language text NOT NULL DEFAULT '',
			translation_provider text NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_items (
			id integer PRIMARY KEY AUTOINCREMENT,
			invoice text NOT NULL REFERENCES invoices(name) ON DELETE CASCADE,
			item_code text NOT NULL,
			description text NOT NULL DEFAULT '',
			target_language text NOT NULL DEFAULT '',
			translated_description text NOT NULL DEFAULT '',
			translation_provider text NOT NULL DEFAULT '',
			translation_model text NOT NULL DEFAULT '',
			confidence real NOT NULL DEFAULT 0,
			translated_at datetime,
			UNIQUE (invoice, item_code)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_invoice_items_provider ON invoice_items (translation_provider)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return nil
}

// UpsertInvoice creates the invoice or updates its selectors
func (s *Store) UpsertInvoice(ctx context.Context, inv Invoice) error {
	name := strings.TrimSpace(inv.Name)
	if name == "" {
		return fmt.Errorf("invoice name is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (name, target_language, translation_provider) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			target_language = excluded.target_language,
			translation_provider = excluded.translation_provider`,
		name, strings.TrimSpace(inv.TargetLanguage), strings.TrimSpace(inv.Provider))
	if err != nil {
		return fmt.Errorf("failed to save invoice %s: %w", name, err)
	}
	return nil
}

// GetInvoice loads one invoice
func (s *Store) GetInvoice(ctx context.Context, name string) (*Invoice, error) {
	var inv Invoice
	err := s.db.QueryRowContext(ctx,
		`SELECT name, target_language, translation_provider FROM invoices WHERE name = ?`,
		strings.TrimSpace(name)).Scan(&inv.Name, &inv.TargetLanguage, &inv.Provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice %s: %w", name, err)
	}
	return &inv, nil
}

// UpsertItem stores an item line and returns its code. An empty code is
// generated from the description. Changing the description of an existing
// item discards its stored translation.
func (s *Store) UpsertItem(ctx context.Context, item Item) (string, error) {
	invoice := strings.TrimSpace(item.Invoice)
	if invoice == "" {
		return "", fmt.Errorf("invoice name is required")
	}
	code := strings.TrimSpace(item.Code)
	if code == "" {
		code = internal.GenerateRecordID(item.Description)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO invoices (name) VALUES (?)`, invoice); err != nil {
		return "", fmt.Errorf("failed to create invoice %s: %w", invoice, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_items (invoice, item_code, description) VALUES (?, ?, ?)
		ON CONFLICT(invoice, item_code) DO UPDATE SET
			description = excluded.description,
			translated_description = CASE WHEN invoice_items.description = excluded.description
				THEN invoice_items.translated_description ELSE '' END,
			translation_provider = CASE WHEN invoice_items.description = excluded.description
				THEN invoice_items.translation_provider ELSE '' END,
			translation_model = CASE WHEN invoice_items.description = excluded.description
				THEN invoice_items.translation_model ELSE '' END,
			confidence = CASE WHEN invoice_items.description = excluded.description
				THEN invoice_items.confidence ELSE 0 END,
			translated_at = CASE WHEN invoice_items.description = excluded.description
				THEN invoice_items.translated_at ELSE NULL END`,
		invoice, code, item.Description)
	if err != nil {
		return "", fmt.Errorf("failed to save item %s/%s: %w", invoice, code, err)
	}
	return code, nil
}

const itemColumns = `invoice, item_code, description, target_language, translated_description,
	translation_provider, translation_model, confidence, translated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var translatedAt sql.NullTime
	err := row.Scan(&item.Invoice, &item.Code, &item.Description, &item.TargetLanguage,
		&item.TranslatedDescription, &item.Provider, &item.Model, &item.Confidence, &translatedAt)
	if err != nil {
		return Item{}, err
	}
	if translatedAt.Valid {
		t := translatedAt.Time
		item.TranslatedAt = &t
	}
	return item, nil
}

// GetItem loads one item
func (s *Store) GetItem(ctx context.Context, invoice, code string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM invoice_items WHERE invoice = ? AND item_code = ?`,
		strings.TrimSpace(invoice), strings.TrimSpace(code))

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s/%s: %w", invoice, code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s/%s: %w", invoice, code, err)
	}
	return &item, nil
}

// ListItems returns the items of invoice in insertion order
func (s *Store) ListItems(ctx context.Context, invoice string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM invoice_items WHERE invoice = ? ORDER BY id`,
		strings.TrimSpace(invoice))
	if err != nil {
		return nil, fmt.Errorf("failed to list items of %s: %w", invoice, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read item of %s: %w", invoice, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list items of %s: %w", invoice, err)
	}
	return items, nil
}

// SaveTranslation writes a successful result into the item's translation
// fields. Failed results are rejected so a stored translation is never
// overwritten by an error.
func (s *Store) SaveTranslation(ctx context.Context, invoice, code string, result *translation.Result) error {
	if result == nil || !result.Success {
		return fmt.Errorf("refusing to store a failed translation for %s/%s", invoice, code)
	}

	provider := result.Provider
	if provider == "" {
		provider = result.ProviderUsed
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE invoice_items SET
			target_language = ?,
			translated_description = ?,
			translation_provider = ?,
			translation_model = ?,
			confidence = ?,
			translated_at = ?
		WHERE invoice = ? AND item_code = ?`,
		result.TargetLanguage, result.TranslatedText, provider, result.ModelUsed,
		result.ConfidenceScore, time.Now().UTC(), strings.TrimSpace(invoice), strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("failed to store translation of %s/%s: %w", invoice, code, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to store translation of %s/%s: %w", invoice, code, err)
	}
	if n == 0 {
		return fmt.Errorf("item %s/%s: %w", invoice, code, ErrNotFound)
	}
	return nil
}

// ClearTranslations removes stored translations of invoice and returns how
// many items were reset
func (s *Store) ClearTranslations(ctx context.Context, invoice string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoice_items SET
			target_language = '',
			translated_description = '',
			translation_provider = '',
			translation_model = '',
			confidence = 0,
			translated_at = NULL
		WHERE invoice = ? AND translated_description != ''`, strings.TrimSpace(invoice))
	if err != nil {
		return 0, fmt.Errorf("failed to clear translations of %s: %w", invoice, err)
	}
	return res.RowsAffected()
}

// Stats counts items and translations across all invoices
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByProvider: make(map[string]int),
		ByLanguage: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&stats.Invoices); err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN translated_description != '' THEN 1 ELSE 0 END), 0)
		FROM invoice_items`).Scan(&stats.Items, &stats.Translated)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"translation_provider", stats.ByProvider},
		{"target_language", stats.ByLanguage},
	}
	for _, g := range groups {
		if err := s.countBy(ctx, g.column, g.into); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// countBy fills into with translated item counts grouped by column, which
// must be a trusted column name
func (s *Store) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*) FROM invoice_items
		WHERE translated_description != ''
		GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("failed to count by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to count by %s: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}
