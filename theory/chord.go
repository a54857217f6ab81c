package theory

import (
	"fmt"
	"regexp"
)

// Quality is the color of a triad.
type Quality string

const (
	QualityMajor Quality = ""  // C
	QualityMinor Quality = "m" // Cm
)

// Flip swaps major and minor.
func (q Quality) Flip() Quality {
	if q == QualityMinor {
		return QualityMajor
	}
	return QualityMinor
}

var chordPattern = regexp.MustCompile(`^([A-G][#b]?)(m?)$`)

// Chord is a major or minor triad.
type Chord struct {
	Root     PitchClass
	Quality  Quality
	Spelling Spelling
}

// ParseChord reads a chord token such as "A", "F#m" or "Bbm".
func ParseChord(token string) (Chord, error) {
	match := chordPattern.FindStringSubmatch(token)
	if match == nil {
		return Chord{}, fmt.Errorf("%w: %q", ErrInvalidChord, token)
	}
	pc, ok := nameToClass[match[1]]
	if !ok {
		return Chord{}, fmt.Errorf("%w: %q", ErrInvalidChord, token)
	}
	s := Sharps
	if len(match[1]) == 2 && match[1][1] == 'b' {
		s = Flats
	}
	return Chord{Root: pc, Quality: Quality(match[2]), Spelling: s}, nil
}

// ValidChordToken reports whether token is empty or a parseable chord.
func ValidChordToken(token string) bool {
	if token == "" {
		return true
	}
	_, err := ParseChord(token)
	return err == nil
}

func (c Chord) String() string {
	return c.Root.Name(c.Spelling) + string(c.Quality)
}

// Triad returns root, third and fifth.
func (c Chord) Triad() [3]PitchClass {
	third := 4
	if c.Quality == QualityMinor {
		third = 3
	}
	return [3]PitchClass{c.Root, c.Root.Transpose(third), c.Root.Transpose(7)}
}

// ChordTriadIndices returns the triad of a chord token as integers, or an
// empty slice if the token is not a chord.
func ChordTriadIndices(token string) []int {
	c, err := ParseChord(token)
	if err != nil {
		return []int{}
	}
	triad := c.Triad()
	return []int{int(triad[0]), int(triad[1]), int(triad[2])}
}

// NotesFromChord spells the triad of token using the key spelling of
// keyRoot, not the chord's own root.
func NotesFromChord(token string, keyRoot Root) []string {
	c, err := ParseChord(token)
	if err != nil {
		return []string{}
	}
	s := keyRoot.KeySpelling()
	triad := c.Triad()
	out := make([]string, len(triad))
	for i, pc := range triad {
		out[i] = pc.Name(s)
	}
	return out
}
