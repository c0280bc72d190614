// internal/game/engine.go
//
// Core engine for a single number-guessing round.
// Responsibilities:
//   - Create rounds with a random (or fixed, for tests) 4-digit secret.
//   - Maintain the per-slot guess buffer and the focused slot.
//   - Score submitted guesses by positional comparison.
//   - Track state transitions: playing → won, and resets to a fresh round.
//
// Notes:
//   - Rejected operations never mutate the game.
//   - Reveal is a view concern only; it is independent of guess progress.
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// hidden is the placeholder shown for each undisclosed secret digit.
const hidden = "#"

// New constructs a new round.
// If fixed is empty, the secret is drawn from src (DefaultSource when nil).
func New(src Source, fixed string) (*Game, error) {
	secret := fixed
	if secret == "" {
		secret = GenerateSecret(src)
	} else if !IsSecret(secret) {
		return nil, fmt.Errorf("fixed secret %q: %w", fixed, ErrInvalidGuess)
	}
	return &Game{
		ID:        uuid.NewString(),
		Round:     1,
		Secret:    secret,
		StartedAt: time.Now().UTC(),
	}, nil
}

// Reset starts a fresh round on the same game: new secret, empty slots,
// zero tally, win and reveal cleared, focus on the first slot.
func (g *Game) Reset(src Source) {
	*g = Game{
		ID:        g.ID,
		Round:     g.Round + 1,
		Secret:    GenerateSecret(src),
		StartedAt: time.Now().UTC(),
	}
}

// SetSlot writes text into slot i. text must be "" (clear) or one digit.
// Filling any slot but the last moves focus to the next one.
func (g *Game) SetSlot(i int, text string) error {
	if i < 0 || i >= Digits {
		return ErrInvalidSlot
	}
	if len(text) > 1 || (len(text) == 1 && !isDigit(text[0])) {
		return ErrInvalidDigit
	}
	g.Slots[i] = text
	if len(text) == 1 && i < Digits-1 {
		g.Focus = i + 1
	} else {
		g.Focus = i
	}
	return nil
}

// SetFocus moves the cursor to slot i.
func (g *Game) SetFocus(i int) error {
	if i < 0 || i >= Digits {
		return ErrInvalidSlot
	}
	g.Focus = i
	return nil
}

// Complete reports whether every slot holds a digit.
func (g *Game) Complete() bool {
	for _, s := range g.Slots {
		if s == "" {
			return false
		}
	}
	return true
}

// Submit scores the current slot buffer against the secret.
//
// Validation rules:
//   - Game must not be won.
//   - Every slot must be filled (ErrIncomplete).
//
// On success the tally and last guess are updated, the buffer is cleared
// and focus returns to the first slot.
func (g *Game) Submit() (Result, error) {
	if g.Won {
		return Result{}, ErrFinished
	}
	if !g.Complete() {
		return Result{}, ErrIncomplete
	}

	guess := strings.Join(g.Slots[:], "")
	correct := Score(g.Secret, guess)

	g.CorrectCount = correct
	g.LastGuess = guess
	g.Attempts++
	g.Slots = [Digits]string{}
	g.Focus = 0

	if correct == Digits {
		g.Won = true
		g.FinishedAt = time.Now().UTC()
	}
	return Result{Correct: correct, Guess: guess, Attempts: g.Attempts, State: g.State()}, nil
}

// SubmitGuess fills all slots from a 4-digit string and submits it.
// An invalid guess leaves the game untouched.
func (g *Game) SubmitGuess(guess string) (Result, error) {
	guess = strings.TrimSpace(guess)
	if g.Won {
		return Result{}, ErrFinished
	}
	if len(guess) < Digits {
		return Result{}, ErrIncomplete
	}
	if !IsSecret(guess) {
		return Result{}, ErrInvalidGuess
	}
	for i := 0; i < Digits; i++ {
		g.Slots[i] = guess[i : i+1]
	}
	return g.Submit()
}

// ToggleReveal flips secret visibility and returns the new value.
func (g *Game) ToggleReveal() bool {
	g.Revealed = !g.Revealed
	return g.Revealed
}

// State reports the coarse state of the round.
func (g *Game) State() State {
	if g.Won {
		return StateWon
	}
	return StatePlaying
}

// Display returns the secret when revealed or won, otherwise one
// placeholder per digit.
func (g *Game) Display() string {
	if g.Revealed || g.Won {
		return g.Secret
	}
	return strings.Repeat(hidden, Digits)
}

// View snapshots the game for rendering.
func (g *Game) View() View {
	last := g.LastGuess
	if last == "" {
		last = "None"
	}
	return View{
		ID:           g.ID,
		Round:        g.Round,
		Display:      g.Display(),
		Slots:        g.Slots,
		Focus:        g.Focus,
		CorrectCount: g.CorrectCount,
		LastGuess:    last,
		Attempts:     g.Attempts,
		Revealed:     g.Revealed,
		State:        g.State(),
	}
}

// Score counts positions where guess and secret hold the same byte.
// Lengths shorter than the secret only compare the overlapping prefix.
func Score(secret, guess string) int {
	n := len(secret)
	if len(guess) < n {
		n = len(guess)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if secret[i] == guess[i] {
			correct++
		}
	}
	return correct
}
