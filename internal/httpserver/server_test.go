package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/numguess/internal/daily"
	"github.com/robalobadob/numguess/internal/db"
	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/store"
)

type testEnv struct {
	t      *testing.T
	ts     *httptest.Server
	client *http.Client
	srv    *Server
	now    time.Time
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	sqlDB, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	env := &testEnv{t: t, now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	srv := New(Config{
		JWTSecret:  "test",
		DailySalt:  "salt",
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return env.now },
	}, store.NewMemoryStore(), sqlDB)
	env.srv = srv

	env.ts = httptest.NewServer(srv.Router())
	t.Cleanup(env.ts.Close)
	env.client = newClient(t)
	return env
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// do sends a JSON request and decodes the JSON response into out (if non-nil).
func (e *testEnv) do(c *http.Client, method, path string, body, out any) int {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) newGame(c *http.Client, secret string) game.View {
	e.t.Helper()
	var v game.View
	code := e.do(c, http.MethodPost, "/game/new", map[string]string{"secret": secret}, &v)
	require.Equal(e.t, http.StatusCreated, code)
	return v
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	var body map[string]any
	assert.Equal(t, http.StatusOK, env.do(env.client, http.MethodGet, "/health", nil, &body))
	assert.Equal(t, true, body["ok"])
}

func TestNewGameHidesSecret(t *testing.T) {
	env := newEnv(t)
	v := env.newGame(env.client, "1234")
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "####", v.Display)
	assert.Equal(t, "None", v.LastGuess)
	assert.Equal(t, game.StatePlaying, v.State)

	var got game.View
	assert.Equal(t, http.StatusOK, env.do(env.client, http.MethodGet, "/game/"+v.ID, nil, &got))
	assert.Equal(t, v.ID, got.ID)

	var e errorBody
	assert.Equal(t, http.StatusNotFound, env.do(env.client, http.MethodGet, "/game/nope", nil, &e))
	assert.Equal(t, "not_found", e.Error)
}

func TestNewGameRejectsBadSecret(t *testing.T) {
	env := newEnv(t)
	var e errorBody
	code := env.do(env.client, http.MethodPost, "/game/new", map[string]string{"secret": "12"}, &e)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSlotFlowAndSubmit(t *testing.T) {
	env := newEnv(t)
	v := env.newGame(env.client, "1234")
	base := "/game/" + v.ID

	var e errorBody
	code := env.do(env.client, http.MethodPost, base+"/submit", nil, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "incomplete_input", e.Error)
	assert.Equal(t, game.IncompleteMessage, e.Message)

	for i, d := range []string{"1", "2", "9", "9"} {
		var sv game.View
		require.Equal(t, http.StatusOK,
			env.do(env.client, http.MethodPost, base+"/slot", map[string]any{"index": i, "value": d}, &sv))
		if i < game.Digits-1 {
			assert.Equal(t, i+1, sv.Focus)
		}
	}

	code = env.do(env.client, http.MethodPost, base+"/slot", map[string]any{"index": 0, "value": "x"}, &e)
	assert.Equal(t, http.StatusBadRequest, code)

	var after game.View
	require.Equal(t, http.StatusOK, env.do(env.client, http.MethodPost, base+"/submit", nil, &after))
	assert.Equal(t, 2, after.CorrectCount)
	assert.Equal(t, "1299", after.LastGuess)
	assert.Equal(t, [game.Digits]string{}, after.Slots)
	assert.Equal(t, game.StatePlaying, after.State)
}

func TestGuessToWin(t *testing.T) {
	env := newEnv(t)
	v := env.newGame(env.client, "4071")

	var res guessRes
	require.Equal(t, http.StatusOK,
		env.do(env.client, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "4000"}, &res))
	assert.Equal(t, 2, res.Correct)
	assert.Empty(t, res.Secret)

	require.Equal(t, http.StatusOK,
		env.do(env.client, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "4071"}, &res))
	assert.Equal(t, 4, res.Correct)
	assert.Equal(t, game.StateWon, res.State)
	assert.Equal(t, "4071", res.Secret)
	assert.Equal(t, 2, res.Attempts)

	var e errorBody
	code := env.do(env.client, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "4071"}, &e)
	assert.Equal(t, http.StatusConflict, code)
}

func TestToggleAndReset(t *testing.T) {
	env := newEnv(t)
	v := env.newGame(env.client, "1234")
	base := "/game/" + v.ID

	var res guessRes
	require.Equal(t, http.StatusOK,
		env.do(env.client, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "1000"}, &res))

	var tv game.View
	require.Equal(t, http.StatusOK, env.do(env.client, http.MethodPost, base+"/toggle", nil, &tv))
	assert.True(t, tv.Revealed)
	assert.Equal(t, "1234", tv.Display)
	assert.Equal(t, 1, tv.CorrectCount)
	assert.Equal(t, "1000", tv.LastGuess)

	var rv game.View
	require.Equal(t, http.StatusOK, env.do(env.client, http.MethodPost, base+"/reset", nil, &rv))
	assert.Equal(t, v.ID, rv.ID)
	assert.Equal(t, 2, rv.Round)
	assert.Equal(t, "####", rv.Display)
	assert.Zero(t, rv.CorrectCount)
	assert.Equal(t, "None", rv.LastGuess)
	assert.False(t, rv.Revealed)
}

func TestAuthStatsAndHistory(t *testing.T) {
	env := newEnv(t)
	c := env.client

	// A guest game is claimed on signup.
	guest := env.newGame(c, "5555")

	creds := credentials{Username: "ann", Password: "password1"}
	require.Equal(t, http.StatusCreated, env.do(c, http.MethodPost, "/auth/signup", creds, nil))
	assert.Equal(t, http.StatusConflict, env.do(newClient(t), http.MethodPost, "/auth/signup", creds, nil))

	v := env.newGame(c, "1234")
	var res guessRes
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "1200"}, &res))
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "1234"}, &res))

	var stats map[string]any
	require.Equal(t, http.StatusOK, env.do(c, http.MethodGet, "/stats/me", nil, &stats))
	assert.EqualValues(t, 1, stats["gamesPlayed"])
	assert.EqualValues(t, 1, stats["wins"])
	assert.EqualValues(t, 2, stats["bestAttempts"])

	var rows []gameRow
	require.Equal(t, http.StatusOK, env.do(c, http.MethodGet, "/games/mine", nil, &rows))
	ids := map[string]string{}
	for _, r := range rows {
		ids[r.ID] = r.Status
	}
	assert.Equal(t, "won", ids[v.ID])
	assert.Equal(t, "playing", ids[guest.ID])

	// logout drops access; login restores it
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, env.do(c, http.MethodGet, "/auth/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized,
		env.do(c, http.MethodPost, "/auth/login", credentials{Username: "ann", Password: "nope12345"}, nil))
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/auth/login", creds, nil))
	assert.Equal(t, http.StatusOK, env.do(c, http.MethodGet, "/auth/me", nil, nil))
}

func TestDailyChallenge(t *testing.T) {
	env := newEnv(t)
	c := env.client
	secret := daily.Secret(env.now, "salt")

	var started dailyNewRes
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/daily/new", nil, &started))
	assert.False(t, started.Played)
	assert.Equal(t, "2026-10-14", started.Date)

	var again dailyNewRes
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/daily/new", nil, &again))
	assert.Equal(t, started.GameID, again.GameID, "session reused")

	wrong := []byte(secret)
	wrong[0] = '0' + (wrong[0]-'0'+1)%10
	var res dailyGuessRes
	require.Equal(t, http.StatusOK,
		env.do(c, http.MethodPost, "/daily/guess", guessReq{GameID: started.GameID, Guess: string(wrong)}, &res))
	assert.Equal(t, 3, res.Correct)
	assert.Equal(t, "playing", res.State)

	env.now = env.now.Add(90 * time.Second)
	require.Equal(t, http.StatusOK,
		env.do(c, http.MethodPost, "/daily/guess", guessReq{GameID: started.GameID, Guess: secret}, &res))
	assert.Equal(t, "won", res.State)

	require.Equal(t, http.StatusOK,
		env.do(c, http.MethodPost, "/daily/guess", guessReq{GameID: started.GameID, Guess: secret}, &res))
	assert.Equal(t, "locked", res.State)

	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/daily/new", nil, &again))
	assert.True(t, again.Played)

	var lb lbRes
	require.Equal(t, http.StatusOK, env.do(c, http.MethodGet, "/daily/leaderboard", nil, &lb))
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 2, lb.Top[0].Attempts)
	assert.Equal(t, 90000, lb.Top[0].ElapsedMs)

	assert.Equal(t, http.StatusBadRequest, env.do(c, http.MethodGet, "/daily/leaderboard?date=oops", nil, nil))
	assert.Equal(t, http.StatusConflict,
		env.do(newClient(t), http.MethodPost, "/daily/guess", guessReq{GameID: started.GameID, Guess: secret}, nil))
}

func TestConcurrentReadsAndToggles(t *testing.T) {
	env := newEnv(t)
	v := env.newGame(env.client, "1234")
	base := env.ts.URL + "/game/" + v.ID

	var wg sync.WaitGroup
	codes := make(chan int, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if resp, err := env.client.Get(base); err == nil {
				codes <- resp.StatusCode
				resp.Body.Close()
			}
		}()
		go func() {
			defer wg.Done()
			if resp, err := env.client.Post(base+"/toggle", "application/json", nil); err == nil {
				codes <- resp.StatusCode
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	close(codes)

	n := 0
	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
		n++
	}
	assert.Equal(t, 100, n)

	var got game.View
	require.Equal(t, http.StatusOK, env.do(env.client, http.MethodGet, "/game/"+v.ID, nil, &got))
	assert.False(t, got.Revealed, "an even number of toggles")
}

func TestOtherClientCannotTouchGame(t *testing.T) {
	env := newEnv(t)
	c := env.client
	creds := credentials{Username: "ann", Password: "password1"}
	require.Equal(t, http.StatusCreated, env.do(c, http.MethodPost, "/auth/signup", creds, nil))

	won := env.newGame(c, "1234")
	var res guessRes
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/game/guess", guessReq{GameID: won.ID, Guess: "1234"}, &res))

	v := env.newGame(c, "5678")
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "5000"}, &res))

	var before map[string]any
	require.Equal(t, http.StatusOK, env.do(c, http.MethodGet, "/stats/me", nil, &before))

	stranger := newClient(t)
	base := "/game/" + v.ID
	var e errorBody
	assert.Equal(t, http.StatusNotFound, env.do(stranger, http.MethodGet, base, nil, &e))
	assert.Equal(t, http.StatusNotFound, env.do(stranger, http.MethodPost, base+"/reset", nil, &e))
	assert.Equal(t, http.StatusNotFound, env.do(stranger, http.MethodPost, base+"/toggle", nil, &e))
	assert.Equal(t, http.StatusNotFound,
		env.do(stranger, http.MethodPost, base+"/slot", map[string]any{"index": 0, "value": "5"}, &e))
	assert.Equal(t, http.StatusNotFound,
		env.do(stranger, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "5678"}, &e))

	var after map[string]any
	require.Equal(t, http.StatusOK, env.do(c, http.MethodGet, "/stats/me", nil, &after))
	assert.Equal(t, before, after)
	assert.EqualValues(t, 1, after["gamesPlayed"])
	assert.EqualValues(t, 1, after["streak"])

	var own game.View
	require.Equal(t, http.StatusOK, env.do(c, http.MethodGet, base, nil, &own))
	assert.Equal(t, 1, own.Attempts)
	assert.Equal(t, "5000", own.LastGuess)
	assert.False(t, own.Revealed)
}

func TestGuestGameStaysPlayableAfterSignup(t *testing.T) {
	env := newEnv(t)
	c := env.client
	v := env.newGame(c, "1234")

	creds := credentials{Username: "bob", Password: "password1"}
	require.Equal(t, http.StatusCreated, env.do(c, http.MethodPost, "/auth/signup", creds, nil))

	var res guessRes
	require.Equal(t, http.StatusOK, env.do(c, http.MethodPost, "/game/guess", guessReq{GameID: v.ID, Guess: "1234"}, &res))
	assert.Equal(t, game.StateWon, res.State)

	var stats map[string]any
	require.Equal(t, http.StatusOK, env.do(c, http.MethodGet, "/stats/me", nil, &stats))
	assert.EqualValues(t, 1, stats["wins"])
}

func TestDailySessionsPrunedNextDay(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusOK, env.do(env.client, http.MethodPost, "/daily/new", nil, nil))

	env.now = env.now.Add(24 * time.Hour)
	var started dailyNewRes
	require.Equal(t, http.StatusOK, env.do(newClient(t), http.MethodPost, "/daily/new", nil, &started))
	assert.Equal(t, "2026-10-15", started.Date)

	d := env.srv.daily
	d.mu.Lock()
	defer d.mu.Unlock()
	require.Len(t, d.sessions, 1)
	for _, sess := range d.sessions {
		assert.Equal(t, "2026-10-15", sess.date)
	}
}
