package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"luthier/config"
	"luthier/debug"
	"luthier/generation"
	"luthier/playback"
	"luthier/sequencer"
	"luthier/theme"
	"luthier/theory"
	"luthier/widgets"
)

const (
	saveDelay       = 500 * time.Millisecond
	generateTimeout = 30 * time.Second
	tempoStep       = 5
)

// keyRoots is the root cycle for the root keys
var keyRoots = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Options wires a Model to its collaborators
type Options struct {
	Session  *sequencer.Session
	Player   *playback.Player
	Theme    *theme.Theme
	Config   *config.Config
	Provider generation.Provider
	Style    string
	Song     string

	// ConfigPath overrides the default config location for saves
	ConfigPath string
}

type Model struct {
	Session  *sequencer.Session
	Player   *playback.Player
	Theme    *theme.Theme
	Config   *config.Config
	Provider generation.Provider

	style      string
	song       string
	configPath string
	save       func(f func())

	keys       KeyMap
	help       help.Model
	cursor     int
	playhead   int
	picking    bool
	pickIndex  int
	generating bool
	status     string
	quitting   bool
}

type UpdateMsg struct{}

type PlayheadMsg int

type GeneratedMsg struct {
	Progression sequencer.Progression
	Err         error
}

func NewModel(opts Options) Model {
	th := opts.Theme
	if th == nil {
		th = theme.New(nil)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	player := opts.Player
	if player == nil {
		player = playback.NewPlayer(opts.Session.Display, nil)
	}
	player.SetTempo(cfg.Tempo)

	return Model{
		Session:    opts.Session,
		Player:     player,
		Theme:      th,
		Config:     cfg,
		Provider:   opts.Provider,
		style:      opts.Style,
		song:       opts.Song,
		configPath: opts.ConfigPath,
		save:       debounce.New(saveDelay),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		playhead:   -1,
	}
}

func ListenForUpdates(session *sequencer.Session) tea.Cmd {
	return func() tea.Msg {
		<-session.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForPlayhead(player *playback.Player) tea.Cmd {
	return func() tea.Msg {
		return PlayheadMsg(<-player.PlayheadChan)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Session),
		ListenForPlayhead(m.Player),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateKeys(msg)

	case UpdateMsg:
		return m, ListenForUpdates(m.Session)

	case PlayheadMsg:
		m.playhead = int(msg)
		return m, ListenForPlayhead(m.Player)

	case GeneratedMsg:
		m.generating = false
		if msg.Err != nil {
			m.status = "generation failed: " + msg.Err.Error()
			return m, nil
		}
		if err := m.Session.Load(msg.Progression); err != nil {
			m.status = "rejected progression: " + err.Error()
			return m, nil
		}
		m.status = "loaded " + strings.Join(msg.Progression.Chords[:], " ")
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	m.status = ""

	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		m.Player.Stop()
		return m, tea.Quit

	case key.Matches(msg, k.Left):
		m.cursor = (m.cursor + sequencer.NumSteps - 1) % sequencer.NumSteps

	case key.Matches(msg, k.Right):
		m.cursor = (m.cursor + 1) % sequencer.NumSteps

	case key.Matches(msg, k.Toggle):
		m.report(m.Session.Toggle(m.cursor))

	case key.Matches(msg, k.Clear):
		m.report(m.Session.SetNote(m.cursor, nil))

	case key.Matches(msg, k.Pick):
		m.picking = true
		m.pickIndex = 0

	case key.Matches(msg, k.GateDown), key.Matches(msg, k.GateUp):
		step := m.Session.Source().Steps[m.cursor]
		if !step.Active {
			m.status = "step is resting"
			break
		}
		delta := sequencer.GateStep
		if key.Matches(msg, k.GateDown) {
			delta = -delta
		}
		gate := sequencer.Clamp(step.Gate+delta, sequencer.MinGate, sequencer.MaxGate)
		m.report(m.Session.SetGate(m.cursor, gate))

	case key.Matches(msg, k.PulseDown), key.Matches(msg, k.PulseUp):
		pulses := m.Session.Settings().Pulses + 1
		if key.Matches(msg, k.PulseDown) {
			pulses -= 2
		}
		m.report(m.Session.SetPulses(pulses))
		m.persist()

	case key.Matches(msg, k.OctDown), key.Matches(msg, k.OctUp):
		octave := m.Session.Settings().Octave + 1
		if key.Matches(msg, k.OctDown) {
			octave -= 2
		}
		m.Session.SetOctave(octave)
		m.persist()

	case key.Matches(msg, k.RootDown), key.Matches(msg, k.RootUp):
		delta := 1
		if key.Matches(msg, k.RootDown) {
			delta = -1
		}
		m.Session.SetRoot(nextRoot(m.Session.Settings().Root, delta))
		m.persist()

	case key.Matches(msg, k.Mode):
		mode := theory.Minor
		if m.Session.Settings().Mode == theory.Minor {
			mode = theory.Major
		}
		m.Session.SetMode(mode)
		m.persist()

	case key.Matches(msg, k.Negative):
		m.Session.SetNegative(!m.Session.Settings().Negative)
		m.persist()

	case key.Matches(msg, k.Randomize):
		m.report(m.Session.Randomize())

	case key.Matches(msg, k.Reset):
		m.Session.Reset()
		m.status = "progression cleared"

	case key.Matches(msg, k.Generate):
		if m.Provider == nil || m.generating {
			break
		}
		m.generating = true
		m.status = "generating..."
		return m, m.generate()

	case key.Matches(msg, k.Play):
		m.Player.Toggle()
		if !m.Player.IsPlaying() {
			m.playhead = -1
		}

	case key.Matches(msg, k.TempoDown), key.Matches(msg, k.TempoUp):
		delta := tempoStep
		if key.Matches(msg, k.TempoDown) {
			delta = -delta
		}
		m.Player.SetTempo(m.Config.Tempo + delta)
		m.Config.Tempo = m.Player.Tempo
		m.persist()

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	chordTones, scaleTones, err := m.Session.NoteOptions(m.cursor)
	if err != nil {
		m.picking = false
		m.report(err)
		return m, nil
	}
	options := append(chordTones, scaleTones...)

	switch {
	case key.Matches(msg, k.Cancel), key.Matches(msg, k.Quit):
		m.picking = false
	case key.Matches(msg, k.Left):
		if m.pickIndex > 0 {
			m.pickIndex--
		}
	case key.Matches(msg, k.Right):
		if m.pickIndex < len(options)-1 {
			m.pickIndex++
		}
	case key.Matches(msg, k.Clear):
		m.picking = false
		m.report(m.Session.SetNote(m.cursor, nil))
	case key.Matches(msg, k.Pick):
		m.picking = false
		if len(options) > 0 {
			note := options[m.pickIndex]
			m.report(m.Session.SetNote(m.cursor, &note))
		}
	}
	return m, nil
}

func (m Model) generate() tea.Cmd {
	provider := m.Provider
	req := generation.RequestFromSettings(m.Session.Settings(), m.style, m.song)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()
		p, err := provider.Generate(ctx, req)
		return GeneratedMsg{Progression: p, Err: err}
	}
}

// report turns an operation error into a status line
func (m *Model) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, sequencer.ErrEmptyProgression):
		m.status = "generate a progression first"
	default:
		m.status = err.Error()
	}
	if err != nil {
		debug.Log("tui", "%v", err)
	}
}

// persist saves the current settings once key repeats settle
func (m Model) persist() {
	m.Config.SetSettings(m.Session.Settings())
	cfg := *m.Config
	path := m.configPath
	m.save(func() {
		var err error
		if path != "" {
			err = cfg.SaveTo(path)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			debug.Log("config", "save failed: %v", err)
		}
	})
}

func nextRoot(current theory.Root, delta int) theory.Root {
	i := int(current.Class) + delta
	return theory.MustParseRoot(keyRoots[theory.Mod(i)])
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := m.Session.State()
	set := state.Settings

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "STOP"
	playhead := -1
	if m.Player.IsPlaying() {
		playState = "PLAY"
		playhead = m.playhead
	}

	scale := state.Scale
	if scale == "" {
		scale = set.Root.Name + " " + set.Mode.String()
	}
	negative := ""
	if set.Negative {
		negative = "  negative"
	}
	header := headerStyle.Render(fmt.Sprintf("luthier  %s  %3dbpm  %s  oct:%d  pulses:%d%s",
		playState, m.Config.Tempo, scale, set.Octave, set.Pulses, negative))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderSequence(m.Theme, state.Display, m.cursor, playhead))
	out.WriteString("\n\n")

	if m.picking {
		chordTones, scaleTones, _ := m.Session.NoteOptions(m.cursor)
		out.WriteString(widgets.RenderNoteOptions(m.Theme, chordTones, scaleTones, m.pickIndex))
		out.WriteString("\n\n")
	} else if state.Source.IsEmpty() {
		out.WriteString(dimStyle.Render("no progression yet, press g to generate"))
		out.WriteString("\n\n")
	}

	if m.status != "" {
		out.WriteString(statusStyle.Render(m.status))
		out.WriteString("\n")
	}

	out.WriteString(m.help.View(m.keys))
	if m.help.ShowAll {
		out.WriteString("\n\n")
		out.WriteString(widgets.RenderLegend(m.Theme))
	}

	return out.String()
}
