package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"luthier/widgets"
)

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Pick      key.Binding
	Clear     key.Binding
	GateDown  key.Binding
	GateUp    key.Binding
	PulseDown key.Binding
	PulseUp   key.Binding
	OctDown   key.Binding
	OctUp     key.Binding
	RootDown  key.Binding
	RootUp    key.Binding
	Mode      key.Binding
	Negative  key.Binding
	Randomize key.Binding
	Generate  key.Binding
	Reset     key.Binding
	Play      key.Binding
	TempoDown key.Binding
	TempoUp   key.Binding
	Help      key.Binding
	Cancel    key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:      Key("previous step", "h", "left"),
		Right:     Key("next step", "l", "right"),
		Toggle:    Key("toggle step", "space", " "),
		Pick:      Key("pick note", "enter"),
		Clear:     Key("rest step", "x", "backspace"),
		GateDown:  Key("shorter gate", "["),
		GateUp:    Key("longer gate", "]"),
		PulseDown: Key("fewer pulses", "-"),
		PulseUp:   Key("more pulses", "+", "="),
		OctDown:   Key("octave down", "o"),
		OctUp:     Key("octave up", "O"),
		RootDown:  Key("root down", "k"),
		RootUp:    Key("root up", "K"),
		Mode:      Key("major/minor", "m"),
		Negative:  Key("negative harmony", "n"),
		Randomize: Key("randomize melody", "r"),
		Generate:  Key("generate progression", "g"),
		Reset:     Key("clear progression", "X"),
		Play:      Key("play/stop", "p"),
		TempoDown: Key("slower", ","),
		TempoUp:   Key("faster", "."),
		Help:      Key("more help", "?"),
		Cancel:    Key("close picker", "esc"),
		Quit:      Key("quit", "q", "ctrl+c"),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Pick, k.Randomize, k.Generate, k.Play, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Toggle, k.Pick, k.Clear, k.GateDown, k.GateUp},
		{k.PulseDown, k.PulseUp, k.Randomize, k.Generate, k.Reset},
		{k.OctDown, k.OctUp, k.RootDown, k.RootUp, k.Mode, k.Negative},
		{k.Play, k.TempoDown, k.TempoUp, k.Help, k.Quit},
	}
}

// HelpSections renders the key map for the command's long help
func HelpSections(k KeyMap) []widgets.KeySection {
	titles := []string{"Steps", "Rhythm", "Harmony", "Transport"}
	var sections []widgets.KeySection
	for i, group := range k.FullHelp() {
		sec := widgets.KeySection{Title: titles[i]}
		for _, b := range group {
			sec.Keys = append(sec.Keys, widgets.KeyBinding{Key: b.Help().Key, Desc: b.Help().Desc})
		}
		sections = append(sections, sec)
	}
	return sections
}
