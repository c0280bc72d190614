// internal/httpserver/server.go
//
// HTTP server wiring for the numguess backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, logging).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): mounted under /game.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token
//     is present; guests get a stable anonymous cookie instead.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/internal/auth"
	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/store"
)

// Config carries the environment-driven settings of the server.
type Config struct {
	JWTSecret    string
	JWTTTL       time.Duration
	CookieName   string
	ClientOrigin string
	Secure       bool // production cookies (Secure + SameSite=None)
	DailySalt    string
	BcryptCost   int              // 0 means bcrypt.DefaultCost
	Now          func() time.Time // clock for the daily challenge
	Source       game.Source      // secret digits; nil means crypto/rand
}

func (c *Config) defaults() {
	if c.JWTSecret == "" {
		c.JWTSecret = "dev_secret_change_me"
	}
	if c.JWTTTL <= 0 {
		c.JWTTTL = 14 * 24 * time.Hour
	}
	if c.CookieName == "" {
		c.CookieName = "numguess_token"
	}
	if c.ClientOrigin == "" {
		c.ClientOrigin = "http://localhost:5173"
	}
	if c.DailySalt == "" {
		c.DailySalt = "local_dev_salt"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Server bundles router, live game store, and DB handle.
type Server struct {
	r      *chi.Mux
	cfg    Config
	store  store.Store
	db     *sql.DB
	users  *auth.Users
	tokens *auth.Tokens
	mu     sync.Mutex // guards live games and owners
	owners map[string]gameOwner
	daily  *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, st store.Store, db *sql.DB) *Server {
	cfg.defaults()
	s := &Server{
		r:      chi.NewRouter(),
		cfg:    cfg,
		store:  st,
		db:     db,
		users:  auth.NewUsers(db, cfg.BcryptCost),
		tokens: auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		owners: make(map[string]gameOwner),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "numguess-go",
			"endpoints": []string{
				"/health", "POST /game/new", "POST /game/guess", "/game/{id}/*", "/daily/*", "/auth/*",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "games": s.store.Len()})
	})

	// Game + daily endpoints: guests can play.
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth)
		s.mountGame(r)
		s.mountDaily(r)
	})

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("reqId", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("http")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// writeErr maps engine and store errors to HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrIncomplete):
		writeError(w, http.StatusUnprocessableEntity, "incomplete_input", game.IncompleteMessage)
	case errors.Is(err, game.ErrInvalidSlot), errors.Is(err, game.ErrInvalidDigit), errors.Is(err, game.ErrInvalidGuess):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, game.ErrFinished):
		writeError(w, http.StatusConflict, "game_finished", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "")
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
