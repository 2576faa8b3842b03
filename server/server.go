// Package server exposes a parser over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dhamidi/pcfg/cky"
	"github.com/dhamidi/pcfg/config"
	"github.com/gorilla/mux"
	"github.com/tliron/commonlog"
)

const (
	// DefaultMaxTokens bounds the sentence length a request may ask for.
	DefaultMaxTokens = 100

	// DefaultMaxBodyBytes bounds the size of a request body.
	DefaultMaxBodyBytes = 1 << 20
)

// Server answers recognition and parsing requests for one grammar.
type Server struct {
	parser       *cky.Parser
	router       *mux.Router
	log          commonlog.Logger
	maxTokens    int
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the request middleware.
func WithLogger(log commonlog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithMaxTokens rejects sentences longer than n tokens.
func WithMaxTokens(n int) Option {
	return func(s *Server) {
		s.maxTokens = n
	}
}

// WithMaxBodyBytes rejects request bodies larger than n bytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// NewServer creates a server answering queries against parser. The grammar
// is only read, so requests are served concurrently.
func NewServer(parser *cky.Parser, opts ...Option) *Server {
	s := &Server{
		parser:       parser,
		router:       mux.NewRouter(),
		log:          commonlog.GetLogger("pcfg.server"),
		maxTokens:    DefaultMaxTokens,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(RequestID, Logger(s.log), Recovery(s.log))
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/grammar", s.handleGrammar).Methods(http.MethodGet)
	s.router.HandleFunc("/recognize", s.handleRecognize).Methods(http.MethodPost)
	s.router.HandleFunc("/parse", s.handleParse).Methods(http.MethodPost)

	return s
}

// ServeHTTP dispatches r through the middleware and router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
