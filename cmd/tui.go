package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"luthier/config"
	"luthier/debug"
	"luthier/generation"
	"luthier/playback"
	"luthier/sequencer"
	"luthier/theme"
	"luthier/tui"
	"luthier/widgets"
)

var (
	tuiPayload string
	tuiStyle   string
	tuiSong    string
)

func init() {
	tuiCmd.Flags().StringVar(&tuiPayload, "payload", "", "load a generation payload and serve it on generate")
	tuiCmd.Flags().StringVar(&tuiStyle, "style", generation.DefaultStyle, "style passed to the generator")
	tuiCmd.Flags().StringVar(&tuiSong, "song", "", "song to emulate with the \""+generation.FamousRiff+"\" style")
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive step editor",
	Long:  "Interactive step editor with MIDI playback on the configured port.\n\n" + widgets.RenderKeyHelp(tui.HelpSections(tui.DefaultKeyMap())),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// loadConfig reads the config, falling back to defaults on a broken file
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		debug.Log("config", "using defaults: %v", err)
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	return cfg
}

func runTUI() error {
	cfg := loadConfig()
	set, err := cfg.Settings()
	if err != nil {
		return err
	}

	session := sequencer.NewSession(set, newRand())

	var provider generation.Provider = generation.LocalProvider{Rand: newRand()}
	if tuiPayload != "" {
		provider = generation.FileProvider{Path: tuiPayload}
		f, err := os.Open(tuiPayload)
		if err != nil {
			return err
		}
		p, err := generation.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", tuiPayload, err)
		}
		if err := session.Load(p); err != nil {
			return err
		}
	}

	// Playback stays silent without a port
	send, err := playback.Open(cfg.MIDI.Port)
	if err != nil {
		debug.Log("playback", "no MIDI output: %v", err)
	} else {
		defer playback.Close()
	}
	player := playback.NewPlayer(session.Display, send)
	player.Channel = uint8(cfg.MIDI.Channel)

	palette, err := theme.LoadOrDefault(cfg.Palette)
	if err != nil {
		debug.Log("theme", "palette: %v", err)
	}

	m := tui.NewModel(tui.Options{
		Session:  session,
		Player:   player,
		Theme:    theme.New(palette),
		Config:   cfg,
		Provider: provider,
		Style:    tuiStyle,
		Song:     tuiSong,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	player.Stop()
	return err
}
