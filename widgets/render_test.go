package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luthier/sequencer"
	"luthier/theme"
	"luthier/theory"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func sample(t *testing.T) sequencer.Progression {
	t.Helper()
	steps := make([]sequencer.Step, sequencer.NumSteps)
	for i := range steps {
		steps[i] = sequencer.Step{Position: i + 1}
	}
	a1 := theory.MustParseNote("A1")
	steps[0] = sequencer.Step{Position: 1, Note: &a1, Active: true, Gate: 1}
	p, err := sequencer.NewProgression([]string{"Am", "F", "", "G"}, steps)
	require.NoError(t, err)
	return p
}

func TestRenderGate(t *testing.T) {
	th := theme.New(nil)
	assert.Equal(t, "███", RenderGate(th, 1, 3))
	assert.Equal(t, "██░", RenderGate(th, 0.6, 3))
	assert.Equal(t, "░░░", RenderGate(th, 0, 3))
}

func TestRenderSequence(t *testing.T) {
	th := theme.New(nil)
	out := RenderSequence(th, sample(t), 1, 0)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], "Am")
	assert.Contains(t, lines[0], "F")
	assert.Contains(t, lines[0], "-")
	assert.True(t, strings.HasPrefix(lines[1], "▶"), "playhead on step 1")
	assert.Contains(t, lines[1], "○")
	assert.True(t, strings.HasPrefix(lines[2], "A1"))
	assert.True(t, strings.HasPrefix(lines[3], "███"))
	assert.Contains(t, lines[4], "16")

	for _, line := range lines {
		assert.Equal(t, 4*16+3, lipgloss.Width(line))
	}
}

func TestRenderNoteOptions(t *testing.T) {
	th := theme.New(nil)
	chord := []theory.Note{theory.MustParseNote("A1"), theory.MustParseNote("C2")}
	scale := []theory.Note{theory.MustParseNote("D2")}

	out := RenderNoteOptions(th, chord, scale, 2)
	assert.Equal(t, "chord: A1 C2\nscale: [D2]", out)
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Steps", Keys: []KeyBinding{{Key: "space", Desc: "toggle"}}}})
	assert.Equal(t, "Steps\n  space        toggle", out)
	assert.Contains(t, RenderLegend(theme.New(nil)), "playhead")
}
