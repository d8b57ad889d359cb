package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/itemtranslate/internal/store"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// OpenTestStore opens a store in a temporary directory, closed on cleanup
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// SeedInvoice stores an invoice with the given selectors and items
func SeedInvoice(t *testing.T, s *store.Store, inv store.Invoice, items ...translation.Item) {
	t.Helper()

	ctx := context.Background()
	if err := s.UpsertInvoice(ctx, inv); err != nil {
		t.Fatalf("Failed to seed invoice %s: %v", inv.Name, err)
	}
	for _, item := range items {
		if _, err := s.UpsertItem(ctx, store.Item{Invoice: inv.Name, Code: item.ID, Description: item.Text}); err != nil {
			t.Fatalf("Failed to seed item %s: %v", item.ID, err)
		}
	}
}

// NewMockDispatcher registers a MockProvider per name, all configured
func NewMockDispatcher(names ...string) (*translation.Dispatcher, map[string]*MockProvider) {
	registry := translation.NewRegistry()
	keys := translation.StaticKeys{}
	mocks := make(map[string]*MockProvider, len(names))

	for _, name := range names {
		mock := NewMockProvider(name)
		_ = registry.Register(mock)
		keys[name] = "test-key-" + name
		mocks[name] = mock
	}

	return translation.NewDispatcher(registry, keys), mocks
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file %s to exist", path)
	}
}

// SetEnv sets environment variables for the duration of the test
func SetEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	for key, value := range vars {
		t.Setenv(key, value)
	}
}
