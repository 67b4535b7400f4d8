package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/starnotary/notary/authwindow"
	"github.com/starnotary/notary/exception"
	"github.com/starnotary/notary/ledger"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/monitoring"
	"github.com/starnotary/notary/security/ratelimit"
	"github.com/starnotary/notary/security/validation"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	ListenAddr    string
	MaxBodyBytes  int64
	MaxStoryWords int
	RateLimit     *ratelimit.RateLimiterConfig
	// EnableMetrics exposes /metrics on the API listener
	EnableMetrics bool
}

type APIServer struct {
	Ledger        *ledger.Ledger
	Window        *authwindow.Window
	ListenAddr    string
	MaxBodyBytes  int64
	MaxStoryWords int
	// per client IP limit on POST endpoints
	IPLimiter     *ratelimit.RateLimiter
	enableMetrics bool
}

func NewAPIServer(l *ledger.Ledger, w *authwindow.Window, cfg Config) *APIServer {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = validation.DefaultRequestBodyLimit
	}
	maxWords := cfg.MaxStoryWords
	if maxWords <= 0 {
		maxWords = validation.MaxStoryWords
	}

	return &APIServer{
		Ledger:        l,
		Window:        w,
		ListenAddr:    cfg.ListenAddr,
		MaxBodyBytes:  maxBody,
		MaxStoryWords: maxWords,
		IPLimiter:     ratelimit.NewRateLimiter(cfg.RateLimit),
		enableMetrics: cfg.EnableMetrics,
	}
}

// Handler returns the routed and instrumented HTTP handler.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /block/{height}", s.handleGetBlock)
	s.route(mux, "GET /stars/{selector}", s.handleGetStars)
	s.route(mux, "POST /requestValidation", s.limited(s.handleRequestValidation))
	s.route(mux, "POST /message-signature/validate", s.limited(s.handleValidateSignature))
	s.route(mux, "POST /block", s.limited(s.handlePostBlock))
	s.route(mux, "GET /chain/validate", s.handleValidateChain)
	s.route(mux, "GET /health", s.handleHealth)

	if s.enableMetrics {
		monitoring.RegisterMetrics(mux)
	}
	return mux
}

func (s *APIServer) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	exception.SafeGo("APIServer", func() {
		errCh <- srv.ListenAndServe()
	})
	logx.Info("API", fmt.Sprintf("API listen on %s", s.ListenAddr))

	defer s.IPLimiter.Stop()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logx.Info("API", "Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
