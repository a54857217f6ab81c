package generation

import (
	"context"
	"math"

	"luthier/rhythm"
	"luthier/sequencer"
	"luthier/theory"
)

type degree struct {
	step    int // index into the seven scale tones
	quality theory.Quality
}

// i VI III VII in minor, I V vi IV in major
var cadences = map[theory.Mode][sequencer.NumChords]degree{
	theory.Minor: {{0, theory.QualityMinor}, {5, theory.QualityMajor}, {2, theory.QualityMajor}, {6, theory.QualityMajor}},
	theory.Major: {{0, theory.QualityMajor}, {4, theory.QualityMajor}, {5, theory.QualityMinor}, {3, theory.QualityMajor}},
}

const minLocalGate = 0.2

// LocalProvider builds a progression offline: a stock diatonic cadence in
// the requested key, a Euclidean rhythm of the requested pulses, and each
// hit playing the root of its chord.
type LocalProvider struct {
	Rand sequencer.Rand
}

// Chords returns the cadence for root and mode as chord tokens.
func Chords(root theory.Root, mode theory.Mode) [sequencer.NumChords]string {
	scale := root.Scale(mode)
	spelling := root.Spelling(mode)

	var out [sequencer.NumChords]string
	for i, d := range cadences[mode] {
		out[i] = theory.Chord{Root: scale[d.step], Quality: d.quality, Spelling: spelling}.String()
	}
	return out
}

func (l LocalProvider) Generate(ctx context.Context, req Request) (sequencer.Progression, error) {
	if err := ctx.Err(); err != nil {
		return sequencer.Progression{}, err
	}
	if err := req.Validate(); err != nil {
		return sequencer.Progression{}, err
	}

	chords := Chords(req.Root, req.Mode)
	spelling := req.Root.Spelling(req.Mode)
	pattern := rhythm.Euclidean(sequencer.NumSteps, req.Pulses)

	steps := make([]sequencer.Step, sequencer.NumSteps)
	for i := range steps {
		steps[i] = sequencer.Step{Position: i + 1}
		if !pattern[i] {
			continue
		}
		chord, err := theory.ParseChord(chords[sequencer.ChordIndex(i)])
		if err != nil {
			return sequencer.Progression{}, err
		}
		note := theory.NewNote(chord.Root, req.Octave, spelling)
		steps[i].Note = &note
		steps[i].Active = true
		steps[i].Gate = l.gate()
	}
	return sequencer.NewProgression(chords[:], steps)
}

// gate draws from [0.2, 1.0] in steps of 0.05
func (l LocalProvider) gate() float64 {
	if l.Rand == nil {
		return sequencer.DefaultGate
	}
	g := minLocalGate + l.Rand.Float64()*(1-minLocalGate)
	return math.Round(g*20) / 20
}
