package theory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidNote  = errors.New("invalid note")
	ErrInvalidChord = errors.New("invalid chord")
	ErrInvalidMode  = errors.New("invalid mode")
)

// PitchClass is one of the 12 chromatic note identities, 0 = C.
type PitchClass int

// Spelling selects which accidental a pitch class is rendered with.
type Spelling int

const (
	Sharps Spelling = iota
	Flats
)

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// enharmonic spellings missing from both tables
var enharmonics = map[string]PitchClass{
	"B#": 0,
	"Fb": 4,
	"E#": 5,
	"Cb": 11,
}

var nameToClass = func() map[string]PitchClass {
	m := make(map[string]PitchClass, 24)
	for i := range sharpNames {
		m[sharpNames[i]] = PitchClass(i)
		m[flatNames[i]] = PitchClass(i)
	}
	for name, pc := range enharmonics {
		m[name] = pc
	}
	return m
}()

// normalizeName upper-cases the letter and lower-cases the rest, so "bB" and
// "BB" both read as "Bb".
func normalizeName(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return strings.ToUpper(token[:1]) + strings.ToLower(token[1:])
}

// ParsePitchClass reads a bare note name such as "C", "F#" or "Bb".
func ParsePitchClass(token string) (PitchClass, error) {
	pc, ok := nameToClass[normalizeName(token)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, token)
	}
	return pc, nil
}

// Mod wraps any integer into 0..11.
func Mod(n int) PitchClass {
	return PitchClass(((n % 12) + 12) % 12)
}

// Transpose moves the pitch class by n semitones.
func (p PitchClass) Transpose(n int) PitchClass {
	return Mod(int(p) + n)
}

// Name returns the pitch class spelled with sharps or flats.
func (p PitchClass) Name(s Spelling) string {
	if s == Flats {
		return flatNames[Mod(int(p))]
	}
	return sharpNames[Mod(int(p))]
}

func (p PitchClass) String() string {
	return p.Name(Sharps)
}

// Note is a pitch class at an octave. Spelling only affects rendering;
// two notes are equal when class and octave match.
type Note struct {
	Class    PitchClass
	Octave   int
	Spelling Spelling
}

// NewNote builds a note spelled with s.
func NewNote(pc PitchClass, octave int, s Spelling) Note {
	return Note{Class: Mod(int(pc)), Octave: octave, Spelling: s}
}

// ParseNote reads "<Letter><#|b?><octave>", e.g. "C#2" or "Bb0".
func ParseNote(token string) (Note, error) {
	token = strings.TrimSpace(token)
	end := len(token)
	for end > 0 && token[end-1] >= '0' && token[end-1] <= '9' {
		end--
	}
	if end == 0 || end == len(token) {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, token)
	}
	name := normalizeName(token[:end])
	pc, ok := nameToClass[name]
	if !ok {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, token)
	}
	octave, err := strconv.Atoi(token[end:])
	if err != nil {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, token)
	}
	s := Sharps
	if strings.HasSuffix(name, "b") {
		s = Flats
	}
	return NewNote(pc, octave, s), nil
}

// MustParseNote is ParseNote for literals known to be valid.
func MustParseNote(token string) Note {
	n, err := ParseNote(token)
	if err != nil {
		panic(err)
	}
	return n
}

// Name is the note without its octave.
func (n Note) Name() string {
	return n.Class.Name(n.Spelling)
}

func (n Note) String() string {
	return n.Name() + strconv.Itoa(n.Octave)
}

// Equal compares pitch, ignoring spelling.
func (n Note) Equal(o Note) bool {
	return n.Class == o.Class && n.Octave == o.Octave
}

// MIDI returns the MIDI key number with C4 = 60.
func (n Note) MIDI() int {
	return 12*(n.Octave+1) + int(n.Class)
}

// Respell returns the same pitch rendered with s.
func (n Note) Respell(s Spelling) Note {
	n.Spelling = s
	return n
}

func (n Note) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Note) UnmarshalText(text []byte) error {
	parsed, err := ParseNote(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
