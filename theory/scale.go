package theory

import (
	"fmt"
	"sort"
	"strings"

	"luthier/debug"
)

// Mode is the scale family. Minor means natural minor.
type Mode int

const (
	Major Mode = iota
	Minor
)

// Scale intervals from the root (semitones)
var modeIntervals = map[Mode][7]int{
	Major: {0, 2, 4, 5, 7, 9, 11},
	Minor: {0, 2, 3, 5, 7, 8, 10},
}

// Keys written with flats in their signature
var flatKeys = map[Mode]map[string]bool{
	Major: {"F": true, "Bb": true, "Eb": true, "Ab": true, "Db": true, "Gb": true, "Cb": true},
	Minor: {"D": true, "G": true, "C": true, "F": true, "Bb": true, "Eb": true, "Ab": true},
}

func (m Mode) String() string {
	if m == Minor {
		return "Minor"
	}
	return "Major"
}

// ParseMode accepts "major" or "minor" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major", "maj":
		return Major, nil
	case "minor", "min":
		return Minor, nil
	}
	return Major, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(m.String())), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Root is a tonal center as the user wrote it. The written name matters:
// "Bb" and "A#" are the same pitch class but spell their scales differently.
type Root struct {
	Name  string
	Class PitchClass
}

// ParseRoot normalizes and validates a root token such as "c#" or "Bb".
func ParseRoot(token string) (Root, error) {
	name := normalizeName(token)
	pc, ok := nameToClass[name]
	if !ok {
		return Root{}, fmt.Errorf("%w: root %q", ErrInvalidNote, token)
	}
	return Root{Name: name, Class: pc}, nil
}

// MustParseRoot is ParseRoot for literals known to be valid.
func MustParseRoot(token string) Root {
	r, err := ParseRoot(token)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Root) String() string {
	return r.Name
}

func (r Root) MarshalText() ([]byte, error) {
	return []byte(r.Name), nil
}

func (r *Root) UnmarshalText(text []byte) error {
	parsed, err := ParseRoot(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Spelling picks sharps or flats for a scale in mode m rooted here.
func (r Root) Spelling(m Mode) Spelling {
	if strings.HasSuffix(r.Name, "b") || flatKeys[m][r.Name] {
		return Flats
	}
	return Sharps
}

// KeySpelling is the spelling used when no mode is in play (chord tones,
// negative harmony): flats if the root is a flat key in either mode.
func (r Root) KeySpelling() Spelling {
	if strings.HasSuffix(r.Name, "b") || flatKeys[Major][r.Name] || flatKeys[Minor][r.Name] {
		return Flats
	}
	return Sharps
}

// Note returns the root at an octave.
func (r Root) Note(octave int) Note {
	s := Sharps
	if strings.HasSuffix(r.Name, "b") {
		s = Flats
	}
	if r.Name != r.Class.Name(s) {
		// enharmonic roots like E# render through their key spelling
		s = r.KeySpelling()
	}
	return NewNote(r.Class, octave, s)
}

// Scale returns the seven pitch classes of the scale in order.
func (r Root) Scale(m Mode) []PitchClass {
	intervals := modeIntervals[m]
	out := make([]PitchClass, len(intervals))
	for i, iv := range intervals {
		out[i] = r.Class.Transpose(iv)
	}
	return out
}

// ScaleNames spells Scale(m) with the key signature of the root.
func (r Root) ScaleNames(m Mode) []string {
	s := r.Spelling(m)
	classes := r.Scale(m)
	out := make([]string, len(classes))
	for i, pc := range classes {
		out[i] = pc.Name(s)
	}
	return out
}

// ScaleNotes spells the scale for a raw root token. An unparseable root
// yields an empty result and a warning.
func ScaleNotes(root string, m Mode) []string {
	r, err := ParseRoot(root)
	if err != nil {
		debug.Log("theory", "invalid root note: %q", root)
		return []string{}
	}
	return r.ScaleNames(m)
}

// PlayableNotes returns the union of the minor and major scales on root,
// one entry per pitch class, sorted chromatically and repeated for each
// octave in the given order.
func PlayableNotes(root string, octaves []int) []Note {
	r, err := ParseRoot(root)
	if err != nil {
		debug.Log("theory", "could not generate notes for root: %q", root)
		return []Note{}
	}
	return r.PlayableNotes(octaves)
}

// PlayableNotes is the typed form of the package-level PlayableNotes.
func (r Root) PlayableNotes(octaves []int) []Note {
	type spelled struct {
		pc PitchClass
		s  Spelling
	}
	seen := make(map[PitchClass]bool)
	var bases []spelled
	for _, m := range []Mode{Minor, Major} {
		s := r.Spelling(m)
		for _, pc := range r.Scale(m) {
			if seen[pc] {
				continue
			}
			seen[pc] = true
			bases = append(bases, spelled{pc: pc, s: s})
		}
	}
	sort.SliceStable(bases, func(i, j int) bool {
		return bases[i].pc < bases[j].pc
	})

	out := make([]Note, 0, len(bases)*len(octaves))
	for _, octave := range octaves {
		for _, b := range bases {
			out = append(out, NewNote(b.pc, octave, b.s))
		}
	}
	return out
}

// ScaleMatch is a scale named by root and mode, e.g. "C Minor".
type ScaleMatch struct {
	Root  Root
	Mode  Mode
	Score int
}

func (s ScaleMatch) String() string {
	return s.Root.Name + " " + s.Mode.String()
}

// DetectScale returns the scale containing the most pitch classes used by
// the chords' triads. Candidates are tried C..B with major before minor and
// the first best score wins. ok is false when nothing matches.
func DetectScale(chords []string) (match ScaleMatch, ok bool) {
	used := make(map[PitchClass]bool)
	for _, token := range chords {
		for _, pc := range ChordTriadIndices(token) {
			used[PitchClass(pc)] = true
		}
	}

	best := ScaleMatch{Score: -1}
	for i := range sharpNames {
		root := Root{Name: sharpNames[i], Class: PitchClass(i)}
		for _, m := range []Mode{Major, Minor} {
			inScale := make(map[PitchClass]bool, 7)
			for _, pc := range root.Scale(m) {
				inScale[pc] = true
			}
			score := 0
			for pc := range used {
				if inScale[pc] {
					score++
				}
			}
			if score > best.Score {
				best = ScaleMatch{Root: root, Mode: m, Score: score}
			}
		}
	}

	if best.Score <= 0 {
		return ScaleMatch{}, false
	}
	return best, true
}
