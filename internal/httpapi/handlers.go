package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/itemtranslate/internal"
	"codeberg.org/snonux/itemtranslate/internal/export"
	"codeberg.org/snonux/itemtranslate/internal/languages"
	"codeberg.org/snonux/itemtranslate/internal/processor"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// BulkRequest is the body of POST /api/translate/bulk
type BulkRequest struct {
	Items          []translation.Item `json:"items"`
	TargetLanguage string             `json:"target_language"`
	Provider       string             `json:"provider"`
}

// ValidateRequest is the body of POST /api/providers/:name/validate
type ValidateRequest struct {
	APIKey string `json:"api_key"`
}

// InvoiceTranslateRequest is the optional body of POST /api/invoices/:invoice/translate
type InvoiceTranslateRequest struct {
	TargetLanguage string `json:"target_language"`
	Provider       string `json:"provider"`
	SkipTranslated bool   `json:"skip_translated"`
}

func errorJSON(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "itemtranslate",
		"version": internal.Version,
	})
}

// translate answers 200 on success, 400 for rejected input and 502 when
// no provider could translate
func (s *Server) translate(c *gin.Context) {
	var req translation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result := s.deps.Dispatcher.Translate(c.Request.Context(), req)

	status := http.StatusOK
	switch {
	case result.Success:
	case result.ErrorKind == translation.KindInput.String():
		status = http.StatusBadRequest
	default:
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

func (s *Server) translateBulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	c.JSON(http.StatusOK, s.deps.Dispatcher.TranslateBulk(c.Request.Context(), req.Items, req.TargetLanguage, req.Provider))
}

func (s *Server) providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers":        s.deps.Registry.Describe(s.deps.Keys),
		"default_provider": translation.DefaultProvider,
		"fallback_order":   s.deps.Dispatcher.FallbackOrder(),
	})
}

func (s *Server) validateKey(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		errorJSON(c, http.StatusBadRequest, errors.New("API key is required"))
		return
	}

	c.JSON(http.StatusOK, s.deps.Registry.ValidateKey(c.Request.Context(), c.Param("name"), req.APIKey))
}

func (s *Server) languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": languages.All()})
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.deps.Store == nil || s.deps.Processor == nil {
		errorJSON(c, http.StatusServiceUnavailable, errors.New("record store is not configured"))
		return false
	}
	return true
}

func (s *Server) stats(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	stats, err := s.deps.Store.Stats(c.Request.Context())
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) exportInvoice(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	invoice := c.Param("invoice")
	items, err := s.deps.Store.ListItems(c.Request.Context(), invoice)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	if len(items) == 0 {
		errorJSON(c, http.StatusNotFound, fmt.Errorf("invoice %s has no items", invoice))
		return
	}

	opts := export.DefaultOptions()
	opts.OnlyTranslated = c.Query("only_translated") == "true"

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(invoice)))
	c.Status(http.StatusOK)
	if _, err := export.WriteCSV(c.Writer, items, opts); err != nil {
		s.deps.Logger.Error().Err(err).Str("invoice", invoice).Msg("CSV export failed")
	}
}

func (s *Server) translateInvoice(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	var req InvoiceTranslateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	report, err := s.deps.Processor.TranslateInvoice(c.Request.Context(), c.Param("invoice"), req.TargetLanguage, req.Provider,
		processor.InvoiceOptions{SkipTranslated: req.SkipTranslated})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, processor.ErrNoItems) {
			status = http.StatusNotFound
		}
		errorJSON(c, status, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
