// internal/httpserver/routes_game.go
//
// Game endpoints. Each live round is held in the store; the games table
// keeps one history row per (game id, round).
//   - POST /game/new           → start a game
//   - POST /game/guess         → submit a full 4-digit guess
//   - GET  /game/{id}          → current view
//   - POST /game/{id}/slot     → edit one slot (focus advances)
//   - POST /game/{id}/focus    → move focus
//   - POST /game/{id}/submit   → submit the slot buffer
//   - POST /game/{id}/toggle   → show/hide the secret
//   - POST /game/{id}/reset    → new round on the same game

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/internal/auth"
	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Post("/guess", s.handleGuess)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Post("/slot", s.handleSlot)
			r.Post("/focus", s.handleFocus)
			r.Post("/submit", s.handleSubmit)
			r.Post("/toggle", s.handleToggle)
			r.Post("/reset", s.handleReset)
		})
	})
}

type newGameReq struct {
	Secret string `json:"secret"` // optional fixed secret (testing)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	g, err := game.New(s.cfg.Source, req.Secret)
	if err != nil {
		writeErr(w, err)
		return
	}
	user, anon := s.owner(w, r)

	s.mu.Lock()
	err = s.store.Save(r.Context(), g)
	if err == nil {
		s.owners[g.ID] = gameOwner{userID: user, anonID: anon}
	}
	view, started := g.View(), g.StartedAt.Format(time.RFC3339)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}

	_, err = s.db.ExecContext(r.Context(),
		`INSERT INTO games (id, round, user_id, anonymous_id, started_at, status) VALUES (?,?,?,?,?,?)`,
		view.ID, view.Round, nullable(user), nullable(anon), started, string(game.StatePlaying))
	if err != nil {
		log.Warn().Err(err).Str("gameId", view.ID).Msg("insert game row")
	}

	writeJSON(w, http.StatusCreated, view)
}

// gameOwner is who started a live game: an account or a guest cookie.
type gameOwner struct {
	userID string
	anonID string
}

// load fetches game id for the caller. A game owned by someone else reads
// as missing. Callers hold s.mu.
func (s *Server) load(r *http.Request, id string) (*game.Game, error) {
	g, err := s.store.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !s.ownedBy(r, s.owners[id]) {
		return nil, store.ErrNotFound
	}
	return g, nil
}

// ownedBy matches the caller against o by account id or by the guest
// cookie, which survives signup so claimed games stay playable.
func (s *Server) ownedBy(r *http.Request, o gameOwner) bool {
	if me := userFrom(r.Context()); me != nil && o.userID != "" && o.userID == me.ID {
		return true
	}
	if o.anonID == "" {
		return false
	}
	c, err := r.Cookie(anonCookieName)
	return err == nil && c.Value == o.anonID
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.load(r, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g.View())
}

type slotReq struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

func (s *Server) handleSlot(w http.ResponseWriter, r *http.Request) {
	var req slotReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	s.mutate(w, r, func(g *game.Game) error { return g.SetSlot(req.Index, req.Value) })
}

type focusReq struct {
	Index int `json:"index"`
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	s.mutate(w, r, func(g *game.Game) error { return g.SetFocus(req.Index) })
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(g *game.Game) error {
		g.ToggleReveal()
		return nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(g *game.Game) error {
		prev := *g
		g.Reset(s.cfg.Source)
		s.recordReset(r.Context(), &prev, g)
		return nil
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(g *game.Game) error {
		if _, err := g.Submit(); err != nil {
			return err
		}
		s.recordGuess(r.Context(), g)
		return nil
	})
}

// mutate loads the caller's game, applies fn, saves it and writes the
// resulting view. Games are shared pointers, so s.mu guards every access.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*game.Game) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.load(r, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := fn(g); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g.View())
}

type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

type guessRes struct {
	Correct   int        `json:"correct"`
	LastGuess string     `json:"lastGuess"`
	Attempts  int        `json:"attempts"`
	State     game.State `json:"state"`
	Secret    string     `json:"secret,omitempty"` // only once won
}

// handleGuess applies a full guess and persists progress.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.load(r, req.GameID)
	if err != nil {
		writeErr(w, err)
		return
	}
	res, err := g.SubmitGuess(req.Guess)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		writeErr(w, err)
		return
	}
	s.recordGuess(r.Context(), g)

	out := guessRes{Correct: res.Correct, LastGuess: res.Guess, Attempts: res.Attempts, State: res.State}
	if g.Won {
		out.Secret = g.Secret
	}
	writeJSON(w, http.StatusOK, out)
}

// ----------------------------- history -------------------------------------

// recordGuess bumps the guess counter and, on a win, closes the row and
// updates the owner's stats. Best effort: failures are logged.
func (s *Server) recordGuess(ctx context.Context, g *game.Game) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin history tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET guesses=? WHERE id=? AND round=?`,
		g.Attempts, g.ID, g.Round); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("update guesses")
	}
	if g.Won {
		if _, err := tx.ExecContext(ctx, `UPDATE games SET status=?, finished_at=? WHERE id=? AND round=?`,
			string(game.StateWon), g.FinishedAt.Format(time.RFC3339), g.ID, g.Round); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("finish game")
		}
		if uid := s.rowOwner(ctx, tx, g); uid != "" {
			if err := auth.BumpStats(ctx, tx, uid, true, g.Attempts); err != nil {
				log.Warn().Err(err).Str("user", uid).Msg("bump stats")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit history tx")
	}
}

// recordReset closes the previous round (abandoned if it had guesses and
// was not won) and opens a row for the new one with the same owner.
func (s *Server) recordReset(ctx context.Context, prev, next *game.Game) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin reset tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if !prev.Won && prev.Attempts > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE games SET status='abandoned', finished_at=? WHERE id=? AND round=?`,
			time.Now().UTC().Format(time.RFC3339), prev.ID, prev.Round); err != nil {
			log.Warn().Err(err).Str("gameId", prev.ID).Msg("abandon game")
		}
		if uid := s.rowOwner(ctx, tx, prev); uid != "" {
			if err := auth.BumpStats(ctx, tx, uid, false, prev.Attempts); err != nil {
				log.Warn().Err(err).Str("user", uid).Msg("bump stats")
			}
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, round, user_id, anonymous_id, started_at, status)
		 SELECT id, ?, user_id, anonymous_id, ?, ? FROM games WHERE id=? AND round=?`,
		next.Round, next.StartedAt.Format(time.RFC3339), string(game.StatePlaying), prev.ID, prev.Round); err != nil {
		log.Warn().Err(err).Str("gameId", next.ID).Msg("insert round row")
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit reset tx")
	}
}

// rowOwner returns the user id owning the round's row, "" for guests.
func (s *Server) rowOwner(ctx context.Context, tx *sql.Tx, g *game.Game) string {
	var uid string
	_ = tx.QueryRowContext(ctx, `SELECT COALESCE(user_id,'') FROM games WHERE id=? AND round=?`,
		g.ID, g.Round).Scan(&uid)
	return uid
}
