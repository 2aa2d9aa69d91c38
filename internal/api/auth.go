package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/mesh-intelligence/bodega/internal/auth"
	"github.com/mesh-intelligence/bodega/internal/session"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// login handles POST /api/auth/login. The first successful login opens
// the shared session; later logins join it.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pruneLocked(r.Context()); err != nil {
		s.logger.Error("closing idle session", "error", err)
	}
	if s.sess == nil {
		opts := session.Options{
			Store:        s.cfg.Store,
			PasswordHash: s.cfg.PasswordHash,
			Logger:       s.cfg.Logger,
			Clock:        s.cfg.Clock,
		}
		if s.cfg.Metrics != nil {
			opts.Observer = s.cfg.Metrics
		}
		sess, err := session.Open(r.Context(), req.Password, opts)
		if err != nil {
			s.logFailedLogin(r, err)
			writeError(w, err)
			return
		}
		s.sess = sess
	} else if err := s.sess.Authenticate(req.Password); err != nil {
		s.logFailedLogin(r, err)
		writeError(w, err)
		return
	}

	now := s.cfg.Clock()
	token, claims, err := auth.GenerateToken(s.cfg.JWTSecret, now, s.cfg.TokenTTL)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	s.tokens[claims.ID] = claims.ExpiresAt.Time

	s.logger.Info("logged in", "remote", r.RemoteAddr, "sessions", len(s.tokens))
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

func (s *Server) logFailedLogin(r *http.Request, err error) {
	if errors.Is(err, types.ErrUnauthorized) {
		s.logger.Warn("login failed", "remote", r.RemoteAddr)
		return
	}
	s.logger.Error("opening session", "error", err)
}

// logout handles POST /api/auth/logout. It revokes the caller's token and
// closes the shared session when no other token is live.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, claims.ID)
	if err := s.pruneLocked(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
