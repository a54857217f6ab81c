package generation

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luthier/rhythm"
	"luthier/sequencer"
	"luthier/theory"
)

func restPayload(chords string, override map[int]string) string {
	var b strings.Builder
	b.WriteString(`{"chords": ` + chords + `, "sequence": [`)
	for i := 1; i <= 16; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		if s, ok := override[i]; ok {
			b.WriteString(s)
			continue
		}
		b.WriteString(`{"step": ` + strconv.Itoa(i) + `, "note": null, "active": false, "gate": 0}`)
	}
	b.WriteString("]}")
	return b.String()
}

func TestDecode(t *testing.T) {
	payload := restPayload(`["Cm", "Ab", "Eb", "Bb"]`, map[int]string{
		1: `{"step": 1, "note": "C2", "active": true, "gate": 0.9}`,
	})
	p, err := Decode(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "Cm", p.Chords[0])
	assert.Equal(t, 1, p.ActiveCount())
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"chords": [`,
		"three chords": restPayload(`["Cm", "Ab", "Eb"]`, nil),
		"bad chord":    restPayload(`["Cm7", "Ab", "Eb", "Bb"]`, nil),
		"short":        `{"chords": ["Cm", "Ab", "Eb", "Bb"], "sequence": []}`,
		"rest with gate": restPayload(`["Cm", "Ab", "Eb", "Bb"]`, map[int]string{
			2: `{"step": 2, "note": null, "active": false, "gate": 0.5}`,
		}),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(payload))
			assert.ErrorIs(t, err, sequencer.ErrInvalidShape)
		})
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(restPayload(`["Am", "F", "C", "G"]`, nil)), 0644))

	p, err := FileProvider{Path: good}.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, [sequencer.NumChords]string{"Am", "F", "C", "G"}, p.Chords)

	_, err = FileProvider{Path: filepath.Join(dir, "missing.json")}.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileProvider{Path: good}.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChords(t *testing.T) {
	assert.Equal(t, [4]string{"Cm", "Ab", "Eb", "Bb"}, Chords(theory.MustParseRoot("C"), theory.Minor))
	assert.Equal(t, [4]string{"Am", "F", "C", "G"}, Chords(theory.MustParseRoot("A"), theory.Minor))
	assert.Equal(t, [4]string{"E", "B", "C#m", "A"}, Chords(theory.MustParseRoot("E"), theory.Major))
}

func TestLocalProvider(t *testing.T) {
	assert := assert.New(t)
	set := sequencer.DefaultSettings()
	set.Pulses = 5
	req := RequestFromSettings(set, "", "")
	assert.Equal(DefaultStyle, req.Style)

	p, err := LocalProvider{Rand: rand.New(rand.NewSource(3))}.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(5, p.ActiveCount())
	assert.Equal(rhythm.Euclidean(16, 5), activeMask(p))

	for i, s := range p.Steps {
		if !s.Active {
			continue
		}
		chord, err := theory.ParseChord(p.ChordAt(i))
		require.NoError(t, err)
		assert.Equal(chord.Root, s.Note.Class)
		assert.Equal(2, s.Note.Octave)
		assert.GreaterOrEqual(s.Gate, minLocalGate)
		assert.LessOrEqual(s.Gate, 1.0)
	}
}

func TestLocalProviderValidatesRequest(t *testing.T) {
	req := RequestFromSettings(sequencer.DefaultSettings(), FamousRiff, "")
	_, err := LocalProvider{}.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req.Song = "Seven Nation Army"
	req.Pulses = 0
	_, err = LocalProvider{}.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestProviderFuncFeedsSession(t *testing.T) {
	var got Request
	provider := ProviderFunc(func(_ context.Context, req Request) (sequencer.Progression, error) {
		got = req
		return LocalProvider{}.Generate(context.Background(), req)
	})

	s := sequencer.NewSession(sequencer.DefaultSettings(), rand.New(rand.NewSource(1)))
	req := RequestFromSettings(s.Settings(), "punk", "")
	p, err := provider.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, s.Load(p))

	assert.Equal(t, "punk", got.Style)
	assert.False(t, s.IsEmpty())
	assert.Equal(t, "C Minor", s.ScaleLabel())
}

func activeMask(p sequencer.Progression) []bool {
	out := make([]bool, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Active
	}
	return out
}
