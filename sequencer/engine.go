package sequencer

import (
	"fmt"
	"sync"

	"luthier/rhythm"
	"luthier/theory"
)

// Rand is the random source used by ReRhythm and RandomizeMelody.
// *rand.Rand from math/rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// LockedRand makes a Rand safe to share between goroutines
type LockedRand struct {
	mu sync.Mutex
	R  Rand
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.R.Float64()
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.R.Intn(n)
}

// Randomized melody bounds
const (
	minRandomPulses = 5
	maxRandomPulses = 13
	minRandomGate   = 0.6
	maxRandomGate   = 1.0
)

func checkIndex(i int) error {
	if i < 0 || i >= NumSteps {
		return fmt.Errorf("%w: %d", ErrStepIndex, i)
	}
	return nil
}

// ToggleStep switches step i on (root at octave, default gate) or off.
func (p Progression) ToggleStep(i int, root theory.Root, octave int) (Progression, error) {
	if err := checkIndex(i); err != nil {
		return p, err
	}
	if p.Steps[i].Active {
		p.Steps[i] = restStep(i + 1)
	} else {
		p.Steps[i] = noteStep(i+1, root.Note(octave), DefaultGate)
	}
	return p, nil
}

// SetNote puts note on step i, activating it. A nil note rests the step.
// An existing non-zero gate is kept.
func (p Progression) SetNote(i int, note *theory.Note) (Progression, error) {
	if err := checkIndex(i); err != nil {
		return p, err
	}
	if note == nil {
		p.Steps[i] = restStep(i + 1)
		return p, nil
	}
	gate := p.Steps[i].Gate
	if gate == 0 {
		gate = DefaultGate
	}
	p.Steps[i] = noteStep(i+1, *note, gate)
	return p, nil
}

// SetGate overwrites the gate of step i and nothing else. Clamping is the
// caller's job, but a resting step or a gate outside (0, 1] is refused
// with the progression unchanged.
func (p Progression) SetGate(i int, gate float64) (Progression, error) {
	if err := checkIndex(i); err != nil {
		return p, err
	}
	if !p.Steps[i].Active {
		return p, fmt.Errorf("%w: %d", ErrRestingStep, i)
	}
	if gate <= 0 || gate > 1 {
		return p, fmt.Errorf("%w: %v", ErrGateRange, gate)
	}
	p.Steps[i].Gate = gate
	return p, nil
}

// ReRhythm lays a Euclidean pattern of pulses over the steps. Steps that
// stay on keep their note and gate, steps that fall off the pattern are
// cleared, and newly added steps get either the root (with probability
// pulses/16) or a random playable note in octave. Dense rhythms lean on the
// root, sparse ones wander.
func (p Progression) ReRhythm(pulses int, root theory.Root, octave int, playable []theory.Note, rng Rand) (Progression, error) {
	if p.IsEmpty() {
		return p, ErrEmptyProgression
	}

	var candidates []theory.Note
	for _, n := range playable {
		if n.Octave == octave {
			candidates = append(candidates, n)
		}
	}

	pattern := rhythm.Euclidean(NumSteps, pulses)
	rootProbability := float64(pulses) / NumSteps
	for i := range p.Steps {
		if !pattern[i] {
			p.Steps[i] = restStep(i + 1)
			continue
		}
		if p.Steps[i].Active {
			continue
		}

		note := root.Note(octave)
		if len(candidates) > 0 && rng.Float64() >= rootProbability {
			note = candidates[rng.Intn(len(candidates))]
		}
		p.Steps[i] = noteStep(i+1, note, DefaultGate)
	}
	return p, nil
}

// RandomizeMelody replaces the whole sequence: a fresh Euclidean rhythm of
// 5-13 pulses, each hit playing a random tone of its governing chord (taken
// from chords) at octave with a gate in [0.6, 1.0). Chords stay as they are.
func (p Progression) RandomizeMelody(chords [NumChords]string, root theory.Root, octave int, rng Rand) (Progression, error) {
	blank := true
	for _, c := range chords {
		if c != "" {
			blank = false
		}
	}
	if p.IsEmpty() || blank {
		return p, ErrEmptyProgression
	}

	pulses := minRandomPulses + rng.Intn(maxRandomPulses-minRandomPulses+1)
	pattern := rhythm.Euclidean(NumSteps, pulses)
	spelling := root.KeySpelling()

	for i := range p.Steps {
		p.Steps[i] = restStep(i + 1)
		if !pattern[i] {
			continue
		}
		chord, err := theory.ParseChord(chords[ChordIndex(i)])
		if err != nil {
			continue
		}
		triad := chord.Triad()
		pc := triad[rng.Intn(len(triad))]
		gate := minRandomGate + rng.Float64()*(maxRandomGate-minRandomGate)
		p.Steps[i] = noteStep(i+1, theory.NewNote(pc, octave, spelling), gate)
	}
	return p, nil
}
