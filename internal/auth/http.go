package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Inventario/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = 60 * time.Second

	defaultTokenTTL = 15 * time.Minute
)

type Server struct {
	Log      *zap.Logger
	Users    *Users
	JWT      *TokenMaker
	TokenTTL time.Duration
}

// Routes serves the auth endpoints relative to their mount point. Login and
// register are rate limited per client IP.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)

	r.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
	r.With(registerLimiter.Middleware).Post("/register", s.handleRegister)
	r.Post("/logout", s.handleLogout)
	r.Get("/whoami", s.handleWhoAmI)

	return r
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsReq, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req credentialsReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(&req)
	return req, err
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		kit.WriteFailure(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	err = s.Users.Register(r.Context(), req.Username, req.Password)
	var verr *kit.ValidationError
	switch {
	case err == nil:
		kit.WriteJSON(w, http.StatusCreated, kit.Result{Success: true, Message: "user registered"})
	case errors.As(err, &verr):
		kit.WriteFailure(w, r, http.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrUserExists):
		kit.WriteFailure(w, r, http.StatusConflict, err.Error())
	default:
		s.Log.Error("register failed", zap.Error(err))
		kit.WriteFailure(w, r, http.StatusInternalServerError, "server error")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		kit.WriteFailure(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	u, err := s.Users.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		kit.WriteFailure(w, r, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		s.Log.Error("login failed", zap.Error(err))
		kit.WriteFailure(w, r, http.StatusInternalServerError, "server error")
		return
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	tok, err := s.JWT.New(u.Username, ttl)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteFailure(w, r, http.StatusInternalServerError, "server error")
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, Username: u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Users.Logout(r.Context()); err != nil {
		kit.WriteFailure(w, r, http.StatusInternalServerError, "server error")
		return
	}
	kit.WriteJSON(w, http.StatusOK, kit.Result{Success: true})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	claims, err := s.JWT.Parse(strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"username":   claims.Username,
		"expires_at": claims.ExpiresAt.Time,
	})
}
