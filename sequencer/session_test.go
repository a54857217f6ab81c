package sequencer

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luthier/theory"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(DefaultSettings(), rand.New(rand.NewSource(1)))
}

func loadSample(t *testing.T, s *Session) {
	t.Helper()
	var p Progression
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &p))
	require.NoError(t, s.Load(p))
}

func drain(s *Session) bool {
	select {
	case <-s.UpdateChan:
		return true
	default:
		return false
	}
}

func TestNewSessionDefaults(t *testing.T) {
	assert := assert.New(t)
	s := NewSession(Settings{Octave: 12, Pulses: -1}, nil)

	set := s.Settings()
	assert.Equal("C", set.Root.Name)
	assert.Equal(MaxOctave, set.Octave)
	assert.Equal(MinPulses, set.Pulses)
	assert.True(s.IsEmpty())
	assert.Empty(s.ScaleLabel())
}

func TestSessionToggleNotifies(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Toggle(0))
	assert.True(t, drain(s))

	p := s.Source()
	assert.Equal(t, "C2", p.Steps[0].Note.String())
	assert.Equal(t, DefaultGate, p.Steps[0].Gate)

	assert.ErrorIs(t, s.Toggle(16), ErrStepIndex)
	assert.False(t, drain(s), "failed edits do not notify")
}

func TestSessionLoadRejectsInvalid(t *testing.T) {
	s := newTestSession(t)
	loadSample(t, s)
	before := s.Source()

	bad := before
	bad.Steps[3].Gate = 0
	assert.ErrorIs(t, s.Load(bad), ErrInvalidShape)
	assert.Equal(t, before, s.Source())
}

func TestSessionSetGateClamps(t *testing.T) {
	s := newTestSession(t)
	loadSample(t, s)

	require.NoError(t, s.SetGate(0, 3))
	assert.Equal(t, 1.0, s.Source().Steps[0].Gate)

	require.NoError(t, s.SetGate(0, 0))
	assert.Equal(t, MinGate, s.Source().Steps[0].Gate)
	assert.NoError(t, s.Source().Validate())
}

func TestSessionSetGateOnRestingStep(t *testing.T) {
	s := newTestSession(t)
	assert.ErrorIs(t, s.SetGate(3, 0.5), ErrRestingStep)
	assert.Zero(t, s.Source().Steps[3].Gate)
	assert.NoError(t, s.Source().Validate())

	loadSample(t, s)
	before := s.Source()
	require.False(t, before.Steps[1].Active)
	assert.ErrorIs(t, s.SetGate(1, 0.7), ErrRestingStep)
	assert.Equal(t, before, s.Source())
	assert.NoError(t, s.Source().Validate())
}

func TestSessionSetNote(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SetNote(2, notePtr("Eb2")))
	assert.Equal(t, "Eb2", s.Source().Steps[2].Note.String())

	require.NoError(t, s.SetNote(2, nil))
	assert.False(t, s.Source().Steps[2].Active)
}

func TestSessionSetPulsesOnEmpty(t *testing.T) {
	s := newTestSession(t)
	assert.NoError(t, s.SetPulses(4))
	assert.Equal(t, 4, s.Settings().Pulses)
	assert.Equal(t, 0, s.Source().ActiveCount())
}

func TestSessionSetPulses(t *testing.T) {
	s := newTestSession(t)
	loadSample(t, s)

	require.NoError(t, s.SetPulses(16))
	assert.Equal(t, NumSteps, s.Source().ActiveCount())
	assert.Equal(t, "A1", s.Source().Steps[0].Note.String())

	require.NoError(t, s.SetPulses(99))
	assert.Equal(t, MaxPulses, s.Settings().Pulses)
}

func TestSessionRandomize(t *testing.T) {
	s := newTestSession(t)
	assert.ErrorIs(t, s.Randomize(), ErrEmptyProgression)
	assert.True(t, s.IsEmpty())

	loadSample(t, s)
	require.NoError(t, s.Randomize())
	p := s.Source()
	assert.Equal(t, [NumChords]string{"Am", "F", "C", "G"}, p.Chords)
	assertInvariant(t, p)
}

func TestSessionNegativeDisplay(t *testing.T) {
	assert := assert.New(t)
	s := newTestSession(t)
	loadSample(t, s)

	assert.Equal(s.Source(), s.Display())

	s.SetNegative(true)
	display := s.Display()
	assert.Equal("Bb", display.Chords[0])
	// A1 mirrors to Bb1 around C
	assert.Equal("Bb1", display.Steps[0].Note.String())
	assert.Equal("Am", s.Source().Chords[0])
	assert.Equal("A1", s.Source().Steps[0].Note.String())

	state := s.State()
	assert.True(state.Settings.Negative)
	assert.Equal(display, state.Display)
	assert.Equal("C Minor", state.Scale)
}

func TestSessionRandomizeUsesSourceChordsUnderNegative(t *testing.T) {
	s := newTestSession(t)
	loadSample(t, s)
	s.SetNegative(true)
	require.NoError(t, s.Randomize())

	src := s.Source()
	for i, step := range src.Steps {
		if step.Active {
			assert.Contains(t, theory.ChordTriadIndices(src.ChordAt(i)), int(step.Note.Class))
		}
	}
}

func TestSessionSettings(t *testing.T) {
	s := newTestSession(t)
	s.SetRoot(theory.MustParseRoot("Eb"))
	s.SetMode(theory.Major)
	s.SetOctave(-2)

	set := s.Settings()
	assert.Equal(t, "Eb", set.Root.Name)
	assert.Equal(t, theory.Major, set.Mode)
	assert.Equal(t, MinOctave, set.Octave)

	require.NoError(t, s.Toggle(0))
	assert.Equal(t, "Eb0", s.Source().Steps[0].Note.String())
}

func TestNoteOptions(t *testing.T) {
	assert := assert.New(t)
	s := newTestSession(t)
	loadSample(t, s)

	chordTones, scaleTones, err := s.NoteOptions(0)
	require.NoError(t, err)

	// Am around octave 2
	names := make([]string, len(chordTones))
	for i, n := range chordTones {
		names[i] = n.String()
	}
	assert.Equal([]string{"A1", "C1", "E1", "A2", "C2", "E2", "A3", "C3", "E3"}, names)

	for _, n := range scaleTones {
		for _, c := range chordTones {
			assert.False(n.Equal(c), "%s listed twice", n)
		}
	}
	assert.Len(scaleTones, len(s.PlayableNotes())-9)

	_, _, err = s.NoteOptions(-1)
	assert.ErrorIs(err, ErrStepIndex)
}

func TestSessionConcurrentEdits(t *testing.T) {
	s := newTestSession(t)
	loadSample(t, s)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				idx := (w + i) % NumSteps
				switch i % 4 {
				case 0:
					_ = s.Toggle(idx)
				case 1:
					_ = s.SetPulses(1 + i%16)
				case 2:
					_ = s.Randomize()
				case 3:
					_ = s.SetGate(idx, 0)
					_ = s.Display()
				}
			}
		}(w)
	}
	wg.Wait()
	assertInvariant(t, s.Source())
}
