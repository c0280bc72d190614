// Command numguess plays the number-guessing game in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/tui"
)

func main() {
	secret := flag.String("secret", "", "fixed 4-digit secret (for practice)")
	reveal := flag.Bool("reveal", false, "start with the secret shown")
	flag.Parse()

	// stdout belongs to the screen; log to a file only when asked.
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if path := os.Getenv("NUMGUESS_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			defer f.Close()
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
			log.Logger = zerolog.New(f).With().Timestamp().Logger()
		}
	}

	g, err := game.New(nil, *secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "numguess:", err)
		os.Exit(2)
	}
	if *reveal {
		g.ToggleReveal()
	}
	log.Info().Str("gameId", g.ID).Msg("starting round")

	final, err := tea.NewProgram(tui.New(g, nil), tea.WithAltScreen()).Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "numguess:", err)
		os.Exit(1)
	}
	if m, ok := final.(tui.Model); ok && m.Game().Won {
		log.Info().Int("attempts", m.Game().Attempts).Msg("round won")
		fmt.Printf("You won in %d tries. The number was %s.\n", m.Game().Attempts, m.Game().Secret)
	}
}
