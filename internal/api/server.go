// Package api serves the bodega HTTP API.
//
// All logged-in clients share one session: the first login opens it and
// it closes when the last token is logged out or expires. Requests carry the token from POST
// /api/auth/login as a bearer token.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mesh-intelligence/bodega/internal/metrics"
	"github.com/mesh-intelligence/bodega/internal/session"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Config configures a Server. Store, PasswordHash and JWTSecret are
// required.
type Config struct {
	Store        types.LedgerStore
	PasswordHash string
	JWTSecret    string
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Clock        func() time.Time
	TokenTTL     time.Duration
}

// Server holds the shared session and the set of live tokens.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	sess   *session.Session
	tokens map[string]time.Time // jti -> expiry
}

// NewServer returns a Server with no open session.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("api: no store")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("api: no jwt secret")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "api"),
		tokens: make(map[string]time.Time),
	}, nil
}

// Handler returns the router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler { return s.authMiddleware(h) }

	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("POST /api/auth/logout", authed(s.logout))

	mux.Handle("GET /api/operators", authed(s.listOperators))

	mux.Handle("GET /api/supplies", authed(s.listSupplies))
	mux.Handle("GET /api/supplies/history", authed(s.supplyHistory))
	mux.Handle("POST /api/supplies/{id}/exit", authed(s.supplyExit))
	mux.Handle("POST /api/supplies/{id}/entry", authed(s.supplyEntry))

	mux.Handle("GET /api/tools", authed(s.listTools))
	mux.Handle("GET /api/tools/history", authed(s.toolHistory))
	mux.Handle("POST /api/tools/{id}/loan", authed(s.toolLoan))
	mux.Handle("POST /api/tools/{id}/return", authed(s.toolReturn))

	mux.Handle("GET /api/master/{kind}", authed(s.exportMaster))
	mux.Handle("PUT /api/master/{kind}", authed(s.saveMaster))
	mux.Handle("POST /api/reload", authed(s.reload))
	mux.Handle("GET /api/dashboard", authed(s.dashboard))

	if s.cfg.Metrics != nil {
		mux.Handle("GET /metrics", s.cfg.Metrics.Handler())
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return LoggingMiddleware(s.logger, mux)
}

// current returns the shared session, or ErrSessionClosed when nobody is
// logged in.
func (s *Server) current() (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil, types.ErrSessionClosed
	}
	return s.sess, nil
}

// tokenActive reports whether jti belongs to a login that has not logged
// out or expired.
func (s *Server) tokenActive(jti string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[jti]
	if ok && s.cfg.Clock().Before(exp) {
		return true
	}
	if err := s.pruneLocked(context.Background()); err != nil {
		s.logger.Error("closing idle session", "error", err)
	}
	return false
}

// pruneLocked drops expired tokens and closes the shared session once no
// live token is left. s.mu must be held.
func (s *Server) pruneLocked(ctx context.Context) error {
	now := s.cfg.Clock()
	for jti, exp := range s.tokens {
		if !now.Before(exp) {
			delete(s.tokens, jti)
		}
	}
	if len(s.tokens) > 0 || s.sess == nil {
		return nil
	}
	err := s.sess.Close(ctx)
	s.sess = nil
	s.logger.Info("shared session closed")
	return err
}

// Close closes the shared session, persisting anything left unsaved.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]time.Time)
	if s.sess == nil {
		return nil
	}
	err := s.sess.Close(ctx)
	s.sess = nil
	return err
}
