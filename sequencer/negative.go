package sequencer

import (
	"luthier/debug"
	"luthier/theory"
)

// MirrorSteps mirrors the note of every active step across root's axis.
// Resting steps pass through unchanged.
func MirrorSteps(steps [NumSteps]Step, root theory.Root) [NumSteps]Step {
	for i, s := range steps {
		if !s.Active || s.Note == nil {
			continue
		}
		n := theory.MirrorNote(*s.Note, root)
		steps[i].Note = &n
	}
	return steps
}

// Mirror returns the negative-harmony view of p: mirrored notes and chords
// with flipped qualities. p itself is not touched.
func (p Progression) Mirror(root theory.Root) Progression {
	out := p
	out.Steps = MirrorSteps(p.Steps, root)
	for i, token := range p.Chords {
		mirrored, err := theory.MirrorChordToken(token, root)
		if err != nil {
			debug.Log("sequencer", "cannot mirror chord %q: %v", token, err)
			continue
		}
		out.Chords[i] = mirrored
	}
	return out
}
