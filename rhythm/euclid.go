package rhythm

// Euclidean distributes pulses as evenly as possible over steps using a
// digital line accumulator. The accumulator starts at steps-pulses so the
// first step is always a hit. Starting it at 0 gives the plain digital line
// pattern; this result is a rotation of that one with the same spacing.
// The result is deterministic for a given input.
// Out of range input (pulses < 0, pulses > steps) yields all rests.
func Euclidean(steps, pulses int) []bool {
	if steps <= 0 {
		return []bool{}
	}
	pattern := make([]bool, steps)
	if pulses > steps || pulses <= 0 {
		return pattern
	}
	if pulses == steps {
		for i := range pattern {
			pattern[i] = true
		}
		return pattern
	}

	acc := steps - pulses
	for i := range pattern {
		acc += pulses
		if acc >= steps {
			acc -= steps
			pattern[i] = true
		}
	}
	return pattern
}

// Count returns the number of hits in a pattern.
func Count(pattern []bool) int {
	n := 0
	for _, hit := range pattern {
		if hit {
			n++
		}
	}
	return n
}

// Format renders hits as 'x' and rests as '.', e.g. "x...x...".
func Format(pattern []bool) string {
	b := make([]byte, len(pattern))
	for i, hit := range pattern {
		if hit {
			b[i] = 'x'
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}
