// Package http exposes the bill list and the new bill form over HTTP.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/garyjia/billed/internal/application/service"
	"github.com/garyjia/billed/internal/domain/event"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ReceiptsDir, when set, is served under /receipts
	ReceiptsDir string
	// DraftIdleTimeout evicts drafts nobody touched for that long; 0 keeps them
	DraftIdleTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:             "0.0.0.0",
		Port:             5678,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     30 * time.Second,
		DraftIdleTimeout: 30 * time.Minute,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server
func NewServer(
	config ServerConfig,
	bills service.BillListService,
	drafts *DraftRegistry,
	exporter BillExporter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		handlers: &Handlers{
			bills:    bills,
			drafts:   drafts,
			exporter: exporter,
			group:    &singleflight.Group{},
			logger:   logger,
		},
		logger: logger,
	}

	server.router.Use(gin.Recovery())
	server.router.Use(server.loggingMiddleware())
	server.router.MaxMultipartMemory = maxReceiptSize

	server.setupRoutes()
	return server
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	if s.config.ReceiptsDir != "" {
		s.router.Static("/receipts", s.config.ReceiptsDir)
	}

	api := s.router.Group("/api")
	{
		api.GET("/bills", h.ListBills)
		api.GET("/bills/export", h.ExportBills)
		api.GET("/bills/:id/proof", h.BillProof)

		api.POST("/drafts", h.OpenDraft)
		api.GET("/drafts/:id", h.GetDraft)
		api.PUT("/drafts/:id/file", h.SelectDraftFile)
		api.POST("/drafts/:id/submit", h.SubmitDraft)
		api.DELETE("/drafts/:id", h.CloseDraft)
	}
}

// Start serves until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	if s.config.DraftIdleTimeout > 0 {
		go s.sweepDrafts(ctx, s.config.DraftIdleTimeout)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// sweepDrafts evicts abandoned drafts until ctx is done
func (s *Server) sweepDrafts(ctx context.Context, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.handlers.drafts.Sweep(maxIdle); len(evicted) > 0 {
				s.logger.Info("Abandoned drafts evicted", "count", len(evicted))
			}
		}
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// BillsChanged makes the next list request read the store again instead of
// joining a fetch that started before the change
func (s *Server) BillsChanged(ctx context.Context, evt *event.Event) error {
	s.handlers.group.Forget(billsKey)
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
