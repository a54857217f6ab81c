package theory

// Negative harmony reflects pitches across the axis between a root and its
// perfect fifth. Mirroring twice gives back the same pitch class.

// Mirror reflects p across the root/fifth axis of root.
func Mirror(p, root PitchClass) PitchClass {
	axisSum := int(root) + int(root.Transpose(7))
	return Mod(axisSum - int(p))
}

// MirrorNote mirrors the pitch class of n, keeps its octave, and spells the
// result with the key spelling of root.
func MirrorNote(n Note, root Root) Note {
	return NewNote(Mirror(n.Class, root.Class), n.Octave, root.KeySpelling())
}

// MirrorChord mirrors the chord root and flips its quality, so a minor
// chord becomes major and vice versa.
func MirrorChord(c Chord, root Root) Chord {
	return Chord{
		Root:     Mirror(c.Root, root.Class),
		Quality:  c.Quality.Flip(),
		Spelling: root.KeySpelling(),
	}
}

// MirrorChordToken is MirrorChord over tokens. Empty tokens stay empty.
func MirrorChordToken(token string, root Root) (string, error) {
	if token == "" {
		return "", nil
	}
	c, err := ParseChord(token)
	if err != nil {
		return token, err
	}
	return MirrorChord(c, root).String(), nil
}
