package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/itemtranslate/internal/processor"
	"codeberg.org/snonux/itemtranslate/internal/store"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// Deps wires the API to the rest of the application. Store and Processor
// may be nil, the invoice routes then answer 503.
type Deps struct {
	Dispatcher *translation.Dispatcher
	Registry   *translation.Registry
	Keys       translation.KeySource
	Store      *store.Store
	Processor  *processor.Processor
	Gatherer   prometheus.Gatherer
	Logger     zerolog.Logger
}

// Server is the HTTP API
type Server struct {
	deps   Deps
	router *gin.Engine
}

// NewServer creates the server and its routes
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.health)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// promhttp compresses /metrics itself
	api := router.Group("/api", gzip.Gzip(gzip.DefaultCompression))
	{
		api.POST("/translate", s.translate)
		api.POST("/translate/bulk", s.translateBulk)
		api.GET("/providers", s.providers)
		api.POST("/providers/:name/validate", s.validateKey)
		api.GET("/languages", s.languages)
		api.GET("/stats", s.stats)
		api.GET("/invoices/:invoice/export", s.exportInvoice)
		api.POST("/invoices/:invoice/translate", s.translateInvoice)
	}

	s.router = router
	return s
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info().Str("addr", addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		event := s.deps.Logger.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = s.deps.Logger.Warn()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(started)).
			Msg("request")
	}
}
