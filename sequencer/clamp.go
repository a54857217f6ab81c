package sequencer

import "golang.org/x/exp/constraints"

// Control ranges used by the editors
const (
	MinGate   = 0.1
	MaxGate   = 1.0
	GateStep  = 0.05
	MinOctave = 0
	MaxOctave = 5
	MinPulses = 1
	MaxPulses = NumSteps
	MinTempo  = 40
	MaxTempo  = 240
)

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
