package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/itemtranslate/internal/metrics"
	"codeberg.org/snonux/itemtranslate/internal/processor"
	"codeberg.org/snonux/itemtranslate/internal/store"
	"codeberg.org/snonux/itemtranslate/internal/testutil"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

type testEnv struct {
	server *Server
	store  *store.Store
	mocks  map[string]*testutil.MockProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := translation.NewRegistry()
	keys := translation.StaticKeys{}
	mocks := map[string]*testutil.MockProvider{}
	for _, name := range []string{"groq", "openai"} {
		mock := testutil.NewMockProvider(name)
		mock.ValidKeys["good-key"] = true
		require.NoError(t, registry.Register(mock))
		keys[name] = "k"
		mocks[name] = mock
	}

	reg := prometheus.NewRegistry()
	dispatcher := translation.NewDispatcher(registry, keys, translation.WithRecorder(metrics.NewRecorder(reg)))
	s := testutil.OpenTestStore(t)

	server := NewServer(Deps{
		Dispatcher: dispatcher,
		Registry:   registry,
		Keys:       keys,
		Store:      s,
		Processor:  processor.NewProcessor(dispatcher, s, processor.Defaults{TargetLanguage: "ar", Provider: "groq"}, zerolog.Nop()),
		Gatherer:   reg,
		Logger:     zerolog.Nop(),
	})

	return &testEnv{server: server, store: s, mocks: mocks}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestTranslate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/translate", translation.Request{Text: "bolt", TargetLanguage: "fr", Provider: "openai"})

	require.Equal(t, http.StatusOK, w.Code)
	var result translation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "[openai fr] bolt", result.TranslatedText)
	assert.Equal(t, "openai", result.ProviderUsed)
	assert.Equal(t, "en", result.SourceLanguage)
}

func TestTranslate_Fallback(t *testing.T) {
	env := newTestEnv(t)
	env.mocks["groq"].Err = errors.New("rate limited")

	w := env.do(http.MethodPost, "/api/translate", translation.Request{Text: "bolt"})

	require.Equal(t, http.StatusOK, w.Code)
	var result translation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "groq (fallback: openai)", result.ProviderUsed)
	assert.Equal(t, "groq failed: rate limited", result.Warning)
}

func TestTranslate_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/translate", translation.Request{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error_kind":"input"`)

	env.mocks["groq"].Err = errors.New("down")
	env.mocks["openai"].Err = errors.New("down too")
	w = env.do(http.MethodPost, "/api/translate", translation.Request{Text: "bolt"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "attempted providers: groq, openai")

	req := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslateBulk(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/translate/bulk", BulkRequest{
		Items:          []translation.Item{{ID: "A", Text: ""}, {ID: "B", Text: "nut"}},
		TargetLanguage: "de",
		Provider:       "groq",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var bulk translation.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bulk))
	assert.Equal(t, 2, bulk.Summary.TotalItems)
	assert.Equal(t, 1, bulk.Summary.SuccessfulTranslations)
	assert.Equal(t, 1, bulk.Summary.FailedTranslations)
	require.Len(t, bulk.Results, 2)
	assert.Equal(t, "A", bulk.Results[0].ItemID)
	assert.Equal(t, "no text", bulk.Results[0].Result.Error)
	assert.Contains(t, w.Body.String(), `"successful_translations":1`)
}

func TestTranslateBulk_NoKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/translate/bulk", BulkRequest{
		Items:    []translation.Item{{ID: "A", Text: "bolt"}},
		Provider: "claude",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "claude: API key not configured")
	assert.Contains(t, w.Body.String(), `"failed_translations":1`)
}

func TestProviders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/providers", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Providers     []translation.ProviderInfo `json:"providers"`
		FallbackOrder []string                   `json:"fallback_order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Providers, 2)
	assert.Equal(t, "groq", body.Providers[0].Name)
	assert.True(t, body.Providers[0].Configured)
	assert.Equal(t, []string{"groq", "deepseek", "openai"}, body.FallbackOrder)
}

func TestValidateKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/providers/groq/validate", ValidateRequest{APIKey: "good-key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	w = env.do(http.MethodPost, "/api/providers/groq/validate", ValidateRequest{APIKey: "bad"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
	assert.Contains(t, w.Body.String(), "401")

	w = env.do(http.MethodPost, "/api/providers/groq/validate", ValidateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLanguages(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/languages", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ar"`)
	assert.Contains(t, w.Body.String(), `"native_name":"العربية"`)
}

func TestInvoiceTranslateExportAndStats(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedInvoice(t, env.store, store.Invoice{Name: "INV-9", TargetLanguage: "fr"},
		translation.Item{ID: "1", Text: "bolt"},
		translation.Item{ID: "2", Text: "nut"},
	)

	w := env.do(http.MethodPost, "/api/invoices/INV-9/translate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report processor.InvoiceReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Saved)
	assert.Equal(t, "fr", report.Bulk.TargetLanguage)

	w = env.do(http.MethodGet, "/api/invoices/INV-9/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INV-9_translations.csv")
	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "[groq fr] bolt", records[1][3])

	w = env.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Translated)
	assert.Equal(t, 2, stats.ByProvider["groq"])
}

func TestInvoiceNotFound(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/invoices/none/translate", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/invoices/none/export", nil).Code)
}

func TestInvoiceRoutesWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dispatcher, _ := testutil.NewMockDispatcher("groq")
	server := NewServer(Deps{Dispatcher: dispatcher, Registry: translation.NewRegistry(), Logger: zerolog.Nop()})

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/api/translate", translation.Request{Text: "bolt"})

	w := env.do(http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `itemtranslate_dispatch_attempts_total{provider="groq",result="success"} 1`)
}

func TestRunShutsDown(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- env.server.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}

func TestGzipResponses(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/languages", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	var body struct {
		Languages []struct {
			Code string `json:"code"`
		} `json:"languages"`
	}
	require.NoError(t, json.NewDecoder(zr).Decode(&body))
	assert.Len(t, body.Languages, 20)

	plain := env.do(http.MethodGet, "/api/languages", nil)
	assert.Empty(t, plain.Header().Get("Content-Encoding"))
}
