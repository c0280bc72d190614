// internal/httpserver/routes_auth.go
//
// Accounts, sessions and per-user history.
//   - POST /auth/signup, /auth/login, /auth/logout
//   - GET  /auth/me, /stats/me, /games/mine (require auth)
//
// Guests are tracked by an anonymous cookie; their games are claimed by
// the account on signup/login.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/internal/auth"
)

const anonCookieName = "numguess_anon"

// ctxUserKey is the context key for the authenticated auth.User.
type ctxUserKey struct{}

func userFrom(ctx context.Context) *auth.User {
	u, _ := ctx.Value(ctxUserKey{}).(*auth.User)
	return u
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, userFrom(r.Context()))
		})
		r.Get("/stats/me", s.handleStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	acc, err := s.users.Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", "Username taken")
		return
	case errors.Is(err, auth.ErrBadUsername), errors.Is(err, auth.ErrBadPassword):
		writeError(w, http.StatusBadRequest, "invalid_signup", err.Error())
		return
	case err != nil:
		writeErr(w, err)
		return
	}
	if !s.startSession(w, r, auth.User{ID: acc.ID, Username: acc.Username}) {
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	acc, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}
	if !s.startSession(w, r, auth.User{ID: acc.ID, Username: acc.Username}) {
		return
	}
	writeJSON(w, http.StatusOK, auth.User{ID: acc.ID, Username: acc.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.cfg.CookieName, "", time.Time{}, -1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// startSession signs a token, sets the auth cookie and claims guest games.
// Returns false when an error response was written.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u auth.User) bool {
	tok, exp, err := s.tokens.Sign(u)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return false
	}
	s.setCookie(w, s.cfg.CookieName, tok, exp, 0)
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		s.claimAnonGames(r.Context(), c.Value, u.ID)
	}
	return true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	acc, err := s.users.ByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           acc.ID,
		"gamesPlayed":  acc.GamesPlayed,
		"wins":         acc.Wins,
		"streak":       acc.Streak,
		"bestAttempts": acc.BestAttempts,
	})
}

type gameRow struct {
	ID         string `json:"id"`
	Round      int    `json:"round"`
	Status     string `json:"status"`
	Guesses    int    `json:"guesses"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, round, status, guesses, started_at, COALESCE(finished_at,'')
		 FROM games WHERE user_id=? ORDER BY started_at DESC, round DESC LIMIT 50`, me.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer rows.Close()

	out := []gameRow{}
	for rows.Next() {
		var gr gameRow
		if err := rows.Scan(&gr.ID, &gr.Round, &gr.Status, &gr.Guesses, &gr.StartedAt, &gr.FinishedAt); err != nil {
			writeErr(w, err)
			return
		}
		out = append(out, gr)
	}
	if err := rows.Err(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// --------------------------- auth middleware -------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is
// present. It never 401s.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := s.authenticate(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth enforces a valid JWT for an existing user.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
	})
}

func (s *Server) authenticate(r *http.Request) (*auth.User, error) {
	tok := auth.FromRequest(r, s.cfg.CookieName)
	if tok == "" {
		return nil, auth.ErrInvalidToken
	}
	u, err := s.tokens.Parse(tok)
	if err != nil {
		return nil, err
	}
	// Ensure user still exists
	if _, err := s.users.ByID(r.Context(), u.ID); err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &u, nil
}

// ------------------------------ ownership ----------------------------------

// owner returns the authenticated user id, or "" and the guest's anonymous
// id (issuing the cookie on first use).
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (userID, anonID string) {
	if me := userFrom(r.Context()); me != nil {
		return me.ID, ""
	}
	return "", s.ensureAnonID(w, r)
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	s.setCookie(w, anonCookieName, id, time.Now().Add(180*24*time.Hour), 0)
	return id
}

// claimAnonGames transfers a guest's games to an account.
func (s *Server) claimAnonGames(ctx context.Context, anonID, userID string) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE daily_results SET user_id=? WHERE user_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon daily results")
	}
}

// setCookie writes an HttpOnly cookie with environment-appropriate
// security attributes. maxAge < 0 deletes it.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	})
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
