package sequencer

import (
	"encoding/json"
	"errors"
	"fmt"

	"luthier/theory"
)

const (
	NumSteps      = 16
	NumChords     = 4
	StepsPerChord = NumSteps / NumChords

	// DefaultGate is the gate given to steps switched on by the user.
	DefaultGate = 0.8
)

var (
	ErrInvalidShape     = errors.New("invalid progression shape")
	ErrEmptyProgression = errors.New("progression is empty")
	ErrStepIndex        = errors.New("step index out of range")
	ErrRestingStep      = errors.New("step is resting")
	ErrGateRange        = errors.New("gate outside (0,1]")
)

// Step is one 16th-note slot. An inactive step has no note and a zero gate;
// an active step has a note and a gate in (0, 1].
type Step struct {
	Position int          `json:"step"` // 1-16
	Note     *theory.Note `json:"note"`
	Active   bool         `json:"active"`
	Gate     float64      `json:"gate"`
}

// Valid checks the active/note/gate invariant.
func (s Step) Valid() error {
	switch {
	case s.Active && s.Note == nil:
		return fmt.Errorf("step %d: active without a note", s.Position)
	case !s.Active && s.Note != nil:
		return fmt.Errorf("step %d: note %s on an inactive step", s.Position, s.Note)
	case s.Active && (s.Gate <= 0 || s.Gate > 1):
		return fmt.Errorf("step %d: gate %v outside (0,1]", s.Position, s.Gate)
	case !s.Active && s.Gate != 0:
		return fmt.Errorf("step %d: gate %v on an inactive step", s.Position, s.Gate)
	}
	return nil
}

func restStep(position int) Step {
	return Step{Position: position}
}

func noteStep(position int, note theory.Note, gate float64) Step {
	return Step{Position: position, Note: &note, Active: true, Gate: gate}
}

// Progression is a 16-step bass line under four chord slots. Step i is
// governed by chord i/4. Progression is a value: every edit returns a new
// one, and Notes are never modified after they are stored.
type Progression struct {
	Chords [NumChords]string
	Steps  [NumSteps]Step
}

// Empty returns a progression with blank chords and all steps resting.
func Empty() Progression {
	var p Progression
	for i := range p.Steps {
		p.Steps[i] = restStep(i + 1)
	}
	return p
}

// NewProgression validates an externally supplied chord list and sequence.
// Nothing is coerced: a wrong length, a bad chord token or a step breaking
// the invariant is an ErrInvalidShape.
func NewProgression(chords []string, steps []Step) (Progression, error) {
	if len(chords) != NumChords {
		return Progression{}, fmt.Errorf("%w: %d chords, want %d", ErrInvalidShape, len(chords), NumChords)
	}
	if len(steps) != NumSteps {
		return Progression{}, fmt.Errorf("%w: %d steps, want %d", ErrInvalidShape, len(steps), NumSteps)
	}

	var p Progression
	for i, token := range chords {
		if !theory.ValidChordToken(token) {
			return Progression{}, fmt.Errorf("%w: chord %d: %w", ErrInvalidShape, i+1, theory.ErrInvalidChord)
		}
		p.Chords[i] = token
	}
	for i, s := range steps {
		if s.Position != i+1 {
			return Progression{}, fmt.Errorf("%w: step %d numbered %d", ErrInvalidShape, i+1, s.Position)
		}
		if err := s.Valid(); err != nil {
			return Progression{}, fmt.Errorf("%w: %w", ErrInvalidShape, err)
		}
		if s.Note != nil {
			n := *s.Note
			s.Note = &n
		}
		p.Steps[i] = s
	}
	return p, nil
}

// IsEmpty reports whether every chord slot is blank. Only a generated
// progression can leave this state.
func (p Progression) IsEmpty() bool {
	for _, c := range p.Chords {
		if c != "" {
			return false
		}
	}
	return true
}

// ChordIndex returns the chord slot governing step i.
func ChordIndex(i int) int {
	return i / StepsPerChord
}

// ChordAt returns the chord token governing step i.
func (p Progression) ChordAt(i int) string {
	return p.Chords[ChordIndex(i)]
}

// ActiveCount returns the number of sounding steps.
func (p Progression) ActiveCount() int {
	n := 0
	for _, s := range p.Steps {
		if s.Active {
			n++
		}
	}
	return n
}

// Validate checks every step.
func (p Progression) Validate() error {
	for _, s := range p.Steps {
		if err := s.Valid(); err != nil {
			return err
		}
	}
	return nil
}

type progressionJSON struct {
	Chords   []string `json:"chords"`
	Sequence []Step   `json:"sequence"`
}

func (p Progression) MarshalJSON() ([]byte, error) {
	return json.Marshal(progressionJSON{
		Chords:   p.Chords[:],
		Sequence: p.Steps[:],
	})
}

// UnmarshalJSON decodes the generation payload shape and validates it.
func (p *Progression) UnmarshalJSON(data []byte) error {
	var raw progressionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	parsed, err := NewProgression(raw.Chords, raw.Sequence)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
