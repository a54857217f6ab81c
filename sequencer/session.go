package sequencer

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"luthier/debug"
	"luthier/theory"
)

// Session owns one progression and serializes edits to it. Each edit
// reads the current snapshot, derives a new one and swaps it in under the
// lock, so concurrent callers see last-writer-wins, never a partial edit.
type Session struct {
	mu       sync.RWMutex
	source   Progression
	settings Settings
	rng      Rand

	// Notify listeners (TUI, playback) of changes
	UpdateChan chan struct{}
}

// NewSession creates an empty session. A nil rng seeds one from the clock.
func NewSession(settings Settings, rng Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		source:     Empty(),
		settings:   settings.Normalize(),
		rng:        rng,
		UpdateChan: make(chan struct{}, 1),
	}
}

func (s *Session) notify() {
	select {
	case s.UpdateChan <- struct{}{}:
	default:
	}
}

// update applies fn to the source under the write lock
func (s *Session) update(fn func(p Progression, set Settings) (Progression, error)) error {
	s.mu.Lock()
	next, err := fn(s.source, s.settings)
	if err == nil {
		s.source = next
	}
	s.mu.Unlock()

	if err == nil {
		s.notify()
	}
	return err
}

// Source returns the canonical progression.
func (s *Session) Source() Progression {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Display returns the progression consumers should render and play: the
// source, or its negative-harmony mirror when that mode is on.
func (s *Session) Display() Progression {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display()
}

func (s *Session) display() Progression {
	if s.settings.Negative {
		return s.source.Mirror(s.settings.Root)
	}
	return s.source
}

// Settings returns the current settings.
func (s *Session) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// State returns settings, source and display from one consistent read.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Settings: s.settings,
		Source:   s.source,
		Display:  s.display(),
		Scale:    s.scaleLabel(),
	}
}

// IsEmpty reports whether no progression has been loaded yet.
func (s *Session) IsEmpty() bool {
	return s.Source().IsEmpty()
}

// Load replaces the progression wholesale, e.g. with a generated one.
// An invalid progression is rejected and the current one kept.
func (s *Session) Load(p Progression) error {
	if err := p.Validate(); err != nil {
		debug.Log("sequencer", "rejected progression: %v", err)
		return errors.Join(ErrInvalidShape, err)
	}
	return s.update(func(Progression, Settings) (Progression, error) {
		return p, nil
	})
}

// Reset returns to the empty progression.
func (s *Session) Reset() {
	s.update(func(Progression, Settings) (Progression, error) {
		return Empty(), nil
	})
}

// Toggle flips step i on or off.
func (s *Session) Toggle(i int) error {
	return s.update(func(p Progression, set Settings) (Progression, error) {
		return p.ToggleStep(i, set.Root, set.Octave)
	})
}

// SetNote sets or clears (nil) the note of step i.
func (s *Session) SetNote(i int, note *theory.Note) error {
	return s.update(func(p Progression, _ Settings) (Progression, error) {
		return p.SetNote(i, note)
	})
}

// SetGate sets the gate of step i, clamped to [MinGate, MaxGate]. A
// resting step has no gate to edit and returns ErrRestingStep.
func (s *Session) SetGate(i int, gate float64) error {
	return s.update(func(p Progression, _ Settings) (Progression, error) {
		return p.SetGate(i, Clamp(gate, MinGate, MaxGate))
	})
}

// SetPulses stores the pulse count and re-rhythms the progression. On an
// empty progression only the setting changes.
func (s *Session) SetPulses(pulses int) error {
	s.mu.Lock()
	s.settings.Pulses = Clamp(pulses, MinPulses, MaxPulses)
	s.mu.Unlock()

	err := s.update(func(p Progression, set Settings) (Progression, error) {
		playable := set.Root.PlayableNotes(PlayableOctaves)
		return p.ReRhythm(set.Pulses, set.Root, set.Octave, playable, s.rng)
	})
	if errors.Is(err, ErrEmptyProgression) {
		debug.Log("sequencer", "pulses set to %d on an empty progression", pulses)
		s.notify()
		return nil
	}
	return err
}

// Randomize rewrites the melody from the source chords. It returns
// ErrEmptyProgression, leaving everything as it was, when there are no
// chords to draw from.
func (s *Session) Randomize() error {
	err := s.update(func(p Progression, set Settings) (Progression, error) {
		return p.RandomizeMelody(p.Chords, set.Root, set.Octave, s.rng)
	})
	if errors.Is(err, ErrEmptyProgression) {
		debug.Log("sequencer", "cannot randomize without a chord progression")
	}
	return err
}

// SetRoot changes the tonal center. The display is re-derived on read.
func (s *Session) SetRoot(root theory.Root) {
	s.mu.Lock()
	s.settings.Root = root
	s.mu.Unlock()
	s.notify()
}

// SetMode changes the scale mode.
func (s *Session) SetMode(m theory.Mode) {
	s.mu.Lock()
	s.settings.Mode = m
	s.mu.Unlock()
	s.notify()
}

// SetOctave changes the octave used for new notes, clamped to 0..5.
func (s *Session) SetOctave(octave int) {
	s.mu.Lock()
	s.settings.Octave = Clamp(octave, MinOctave, MaxOctave)
	s.mu.Unlock()
	s.notify()
}

// SetNegative turns the negative-harmony view on or off.
func (s *Session) SetNegative(on bool) {
	s.mu.Lock()
	s.settings.Negative = on
	s.mu.Unlock()
	s.notify()
}

// PlayableNotes returns the note palette for the current root.
func (s *Session) PlayableNotes() []theory.Note {
	return s.Settings().Root.PlayableNotes(PlayableOctaves)
}

// NoteOptions lists choices for step i: tones of its chord around the
// current octave, then the remaining playable notes.
func (s *Session) NoteOptions(i int) (chordTones, scaleTones []theory.Note, err error) {
	if err := checkIndex(i); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	set := s.settings
	token := s.display().ChordAt(i)
	s.mu.RUnlock()

	isChordTone := make(map[theory.Note]bool)
	if chord, err := theory.ParseChord(token); err == nil {
		spelling := set.Root.KeySpelling()
		for _, octave := range []int{set.Octave - 1, set.Octave, set.Octave + 1} {
			if octave < MinOctave || octave > MaxOctave {
				continue
			}
			for _, pc := range chord.Triad() {
				n := theory.NewNote(pc, octave, spelling)
				if isChordTone[n] {
					continue
				}
				isChordTone[n] = true
				chordTones = append(chordTones, n)
			}
		}
	}

	for _, n := range set.Root.PlayableNotes(PlayableOctaves) {
		if !isChordTone[n.Respell(set.Root.KeySpelling())] {
			scaleTones = append(scaleTones, n)
		}
	}
	return chordTones, scaleTones, nil
}

// ScaleLabel renders "<root> <Major|Minor>", or "" while empty.
func (s *Session) ScaleLabel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scaleLabel()
}

func (s *Session) scaleLabel() string {
	if s.source.IsEmpty() {
		return ""
	}
	return s.settings.Root.Name + " " + s.settings.Mode.String()
}
