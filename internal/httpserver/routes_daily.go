// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start a daily game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's daily game
//   - GET  /daily/leaderboard → top results for today (or ?date=YYYY-MM-DD)
//
// Every player shares the same secret for a UTC day and plays it once.
// Sessions are held in memory for active play and persisted to DB on win.

package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/internal/daily"
	"github.com/robalobadob/numguess/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	mu       sync.Mutex
	sessions map[string]*dailySession // keyed by playerID|date
}

type dailySession struct {
	game  *game.Game
	start time.Time
	date  string
}

func (s *Server) mountDaily(r chi.Router) {
	d := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		sessions: make(map[string]*dailySession),
	}
	s.daily = d
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", d.handleNew)
		r.Post("/guess", d.handleGuess)
		r.Get("/leaderboard", d.handleLeaderboard)
	})
}

// player returns the user id when logged in, otherwise the anonymous id.
func (d *dailyServer) player(w http.ResponseWriter, r *http.Request) string {
	uid, anon := d.srv.owner(w, r)
	if uid != "" {
		return uid
	}
	return anon
}

type dailyNewRes struct {
	GameID string `json:"gameId"`
	Date   string `json:"date"`
	Played bool   `json:"played"`
}

func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	pid := d.player(w, r)
	now := d.srv.cfg.Now()
	date := daily.DateKey(now)

	played, err := d.store.AlreadyPlayed(r.Context(), pid, date)
	if err != nil {
		writeErr(w, err)
		return
	}
	if played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Played: true})
		return
	}

	key := pid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(date)
	if sess, ok := d.sessions[key]; ok {
		writeJSON(w, http.StatusOK, dailyNewRes{GameID: sess.game.ID, Date: date})
		return
	}
	g, err := game.New(nil, daily.Secret(now, d.srv.cfg.DailySalt))
	if err != nil {
		writeErr(w, err)
		return
	}
	d.sessions[key] = &dailySession{game: g, start: now, date: date}
	writeJSON(w, http.StatusOK, dailyNewRes{GameID: g.ID, Date: date})
}

// prune drops sessions from days other than today. Callers hold d.mu.
func (d *dailyServer) prune(today string) {
	for k, sess := range d.sessions {
		if sess.date != today {
			delete(d.sessions, k)
		}
	}
}

type dailyGuessRes struct {
	Correct   int    `json:"correct"`
	LastGuess string `json:"lastGuess"`
	Attempts  int    `json:"attempts"`
	State     string `json:"state"` // playing | won | locked
}

func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	pid := d.player(w, r)

	var req guessReq
	if err := decodeJSON(r, &req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "")
		return
	}

	now := d.srv.cfg.Now()
	key := pid + "|" + daily.DateKey(now)

	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[key]
	if !ok || sess.game.ID != req.GameID {
		writeError(w, http.StatusConflict, "no_session", "")
		return
	}
	g := sess.game

	res, err := g.SubmitGuess(req.Guess)
	if errors.Is(err, game.ErrFinished) {
		writeJSON(w, http.StatusOK, dailyGuessRes{
			Correct: g.CorrectCount, LastGuess: g.LastGuess, Attempts: g.Attempts, State: "locked",
		})
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	if g.Won {
		err := d.store.InsertResult(r.Context(), daily.Result{
			UserID:    pid,
			Date:      sess.date,
			Attempts:  g.Attempts,
			ElapsedMs: int(now.Sub(sess.start).Milliseconds()),
		})
		if err != nil {
			log.Warn().Err(err).Str("player", pid).Msg("insert daily result")
		}
	}
	writeJSON(w, http.StatusOK, dailyGuessRes{
		Correct: res.Correct, LastGuess: res.Guess, Attempts: res.Attempts, State: string(res.State),
	})
}

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.cfg.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date", "")
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	rows, err := d.store.Leaderboard(r.Context(), date, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
