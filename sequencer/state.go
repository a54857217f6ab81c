package sequencer

import "luthier/theory"

// Settings holds the editor parameters that operations read
type Settings struct {
	Root     theory.Root `json:"root"`
	Mode     theory.Mode `json:"mode"`
	Octave   int         `json:"octave"`
	Pulses   int         `json:"pulses"`
	Negative bool        `json:"negativeHarmony"`
}

// PlayableOctaves are the octaves offered in note pickers
var PlayableOctaves = []int{0, 1, 2, 3, 4}

// DefaultSettings returns C minor, octave 2, 8 pulses
func DefaultSettings() Settings {
	return Settings{
		Root:   theory.MustParseRoot("C"),
		Mode:   theory.Minor,
		Octave: 2,
		Pulses: 8,
	}
}

// Normalize clamps octave and pulses into their editor ranges
func (s Settings) Normalize() Settings {
	s.Octave = Clamp(s.Octave, MinOctave, MaxOctave)
	s.Pulses = Clamp(s.Pulses, MinPulses, MaxPulses)
	if s.Root.Name == "" {
		s.Root = theory.MustParseRoot("C")
	}
	return s
}

// State is one immutable view handed to consumers: the editable source, the
// derived display and the settings that produced it.
type State struct {
	Settings Settings    `json:"settings"`
	Source   Progression `json:"source"`
	Display  Progression `json:"display"`
	Scale    string      `json:"scale,omitempty"`
}
