// Package tui is the single-screen terminal player: the secret row, the
// correct-count readout, four one-digit inputs and three buttons.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/numguess/internal/game"
)

// Buttons, in focus order after the four slots.
const (
	btnCheck = iota
	btnNew
	btnToggle
	numButtons
)

// focusables counts slots plus buttons.
const focusables = game.Digits + numButtons

// Model implements tea.Model on top of a game.Game.
type Model struct {
	g      *game.Game
	src    game.Source
	inputs [game.Digits]textinput.Model
	focus  int // 0..3 slots, 4..6 buttons

	alert  string // "Incomplete Input" style error banner
	notice string

	keys keyMap
	help help.Model
}

// New builds a model around g. src feeds New Game (nil for crypto/rand).
func New(g *game.Game, src game.Source) Model {
	m := Model{g: g, src: src, keys: defaultKeys(), help: help.New()}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 1
		ti.Width = 1
		ti.Placeholder = " "
		m.inputs[i] = ti
	}
	m.sync()
	return m
}

// Game exposes the underlying round (tests, final summary).
func (m Model) Game() *game.Game { return m.g }

// Focus reports the focused element: 0..3 slots, then the buttons.
func (m Model) Focus() int { return m.focus }

// Alert returns the current error banner, if any.
func (m Model) Alert() string { return m.alert }

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(km, m.keys.New):
		m.newGame()
	case key.Matches(km, m.keys.Toggle):
		m.g.ToggleReveal()
	case key.Matches(km, m.keys.Next):
		m.focus = (m.focus + 1) % focusables
	case key.Matches(km, m.keys.Prev):
		m.focus = (m.focus + focusables - 1) % focusables
	case key.Matches(km, m.keys.Press):
		m.press()
	case key.Matches(km, m.keys.Clear):
		m.clear()
	case km.Type == tea.KeyRunes && len(km.Runes) == 1:
		m.typeDigit(string(km.Runes))
	}
	m.sync()
	return m, nil
}

// typeDigit fills the focused slot; the engine advances focus.
func (m *Model) typeDigit(d string) {
	if m.focus >= game.Digits {
		return
	}
	if err := m.g.SetSlot(m.focus, d); err != nil {
		return
	}
	m.alert = ""
	m.focus = m.g.Focus
}

// clear empties the focused slot, or steps back and empties the previous
// one when it is already empty.
func (m *Model) clear() {
	if m.focus >= game.Digits {
		return
	}
	i := m.focus
	if m.g.Slots[i] == "" && i > 0 {
		i--
	}
	_ = m.g.SetSlot(i, "")
	m.focus = i
}

func (m *Model) press() {
	switch m.focus - game.Digits {
	case btnNew:
		m.newGame()
	case btnToggle:
		m.g.ToggleReveal()
	default:
		m.check()
	}
}

func (m *Model) check() {
	res, err := m.g.Submit()
	switch {
	case errors.Is(err, game.ErrIncomplete):
		m.alert = "Incomplete Input: " + game.IncompleteMessage
		return
	case errors.Is(err, game.ErrFinished):
		m.notice = "Round finished. Press ctrl+n for a new game."
		return
	case err != nil:
		m.alert = err.Error()
		return
	}
	m.alert = ""
	m.notice = ""
	if res.State == game.StateWon {
		m.notice = fmt.Sprintf("Congratulations! You guessed %s in %d tries.", res.Guess, res.Attempts)
	}
	m.focus = m.g.Focus
}

func (m *Model) newGame() {
	m.g.Reset(m.src)
	m.alert, m.notice = "", ""
	m.focus = 0
}

// sync mirrors engine slots and focus into the text inputs.
func (m *Model) sync() {
	if m.focus < game.Digits {
		_ = m.g.SetFocus(m.focus)
	}
	for i := range m.inputs {
		m.inputs[i].SetValue(m.g.Slots[i])
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Guess the number!"))
	b.WriteString("\n\n")

	secret := make([]string, 0, game.Digits)
	for _, c := range m.g.Display() {
		secret = append(secret, boxStyle.Render(string(c)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, secret...))
	b.WriteString("\n")

	b.WriteString(resultStyle.Render(fmt.Sprintf("%d correct", m.g.CorrectCount)))
	b.WriteString("\n")

	b.WriteString(guessStyle.Render("Your Guess: " + m.g.View().LastGuess))
	b.WriteString("\n")

	slots := make([]string, 0, game.Digits)
	for i := range m.inputs {
		st := boxStyle
		if i == m.focus {
			st = focusedBoxStyle
		}
		slots = append(slots, st.Render(m.inputs[i].View()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, slots...))
	b.WriteString("\n\n")

	toggle := "Show Numbers"
	if m.g.Revealed {
		toggle = "Hide Numbers"
	}
	for i, label := range []string{"Check Numbers", "New Game", toggle} {
		st := buttonStyle
		if m.focus == game.Digits+i {
			st = focusedButtonStyle
		}
		b.WriteString(st.Render(label))
		b.WriteString("\n")
	}

	if m.alert != "" {
		b.WriteString("\n" + errorStyle.Render("✖ "+m.alert))
	}
	if m.notice != "" {
		b.WriteString("\n" + successStyle.Render("✔ "+m.notice))
	}
	b.WriteString("\n" + helpStyle.Render(m.help.View(m.keys)))

	return frameStyle.Render(b.String())
}
