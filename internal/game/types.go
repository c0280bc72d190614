// internal/game/types.go
//
// Core type definitions for the number-guessing engine.
// Defines:
//   - State: coarse game state (playing/won).
//   - Game: state for a single round (secret, slot buffer, tallies, flags).
//   - Result: outcome of one submitted guess.
//   - View: render-ready snapshot shared by the HTTP API and the TUI.

package game

import (
	"errors"
	"time"
)

// Digits is the number of positions in a secret and in a guess.
const Digits = 4

// State is the coarse lifecycle of a round.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
)

// IncompleteMessage is the user-facing text for ErrIncomplete.
const IncompleteMessage = "Please fill in all digits."

// Errors returned by the engine. None of them mutate the game.
var (
	ErrIncomplete   = errors.New("incomplete input")
	ErrInvalidSlot  = errors.New("slot index out of range")
	ErrInvalidDigit = errors.New("slot value must be a single digit")
	ErrInvalidGuess = errors.New("guess must be exactly 4 digits")
	ErrFinished     = errors.New("game finished")
)

// Game holds the state of a single round.
type Game struct {
	ID           string         // Unique game identifier (uuid).
	Round        int            // 1 for the first round, bumped by Reset.
	Secret       string         // Four decimal digits.
	Slots        [Digits]string // Per-slot guess buffer; "" or one digit.
	Focus        int            // Index of the slot that receives the next digit.
	CorrectCount int            // Positional matches of the last submitted guess.
	LastGuess    string         // Last submitted guess, "" before the first one.
	Attempts     int            // Submitted guesses this round.
	Won          bool
	Revealed     bool // Secret shown without winning.
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Result is returned by Submit.
type Result struct {
	Correct  int    `json:"correct"`
	Guess    string `json:"guess"`
	Attempts int    `json:"attempts"`
	State    State  `json:"state"`
}

// View is a snapshot safe to send to a client: the secret only appears
// once it is revealed or the round is won.
type View struct {
	ID           string         `json:"gameId"`
	Round        int            `json:"round"`
	Display      string         `json:"display"`
	Slots        [Digits]string `json:"slots"`
	Focus        int            `json:"focus"`
	CorrectCount int            `json:"correct"`
	LastGuess    string         `json:"lastGuess"`
	Attempts     int            `json:"attempts"`
	Revealed     bool           `json:"revealed"`
	State        State          `json:"state"`
}
