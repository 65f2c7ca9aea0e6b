package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"veil-hq/veil/pkg/config"
	"veil-hq/veil/pkg/storage"
	"veil-hq/veil/pkg/telemetry/metrics"
	"veil-hq/veil/pkg/webext/injector"
	"veil-hq/veil/pkg/webext/registry"
)

// Server is the local HTTP relay backing the veil: scheme. Injected script
// reaches it through the embedder's scheme handler, which rewrites
// veil:ext-api/* fetches into plain HTTP requests against this listener.
type Server struct {
	config       *config.RelayConfig
	store        storage.Store
	registry     *registry.Registry
	composer     *injector.Composer
	metrics      *metrics.Collector
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a relay server. collector may be nil, in which case no
// /metrics route is mounted.
func NewServer(cfg *config.RelayConfig, store storage.Store, reg *registry.Registry, logger *slog.Logger, collector *metrics.Collector) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:       cfg,
		store:        store,
		registry:     reg,
		composer:     injector.NewComposer(reg, logger, collector),
		metrics:      collector,
		logger:       logger.With("component", "relay"),
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP listener and blocks until shutdown, triggered by
// context cancellation, SIGINT/SIGTERM, or a Shutdown call.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("relay is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting relay", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the listener, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during relay shutdown", "error", err)
				shutdownErr = fmt.Errorf("relay shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("relay stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the listener is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the relay's route tree wrapped in the middleware chain.
// Exposed separately so tests can drive it without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/ext-api/storage/", newStorageHandler(s.store, s.logger))
	mux.Handle("/extensions-data", newExtensionsHandler(s.registry))
	mux.Handle("/inject", newInjectHandler(s.composer))
	mux.Handle("/health", healthHandler{})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger)(handler)

	return handler
}
