package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"luthier/sequencer"
	"luthier/theme"
	"luthier/theory"
)

// cellWidth is the column width of one step
const cellWidth = 4

const regionWidth = cellWidth * sequencer.StepsPerChord

// RenderGate renders a gate as a bar of width cells
func RenderGate(th *theme.Theme, gate float64, width int) string {
	filled := int(math.Round(gate * float64(width)))
	filled = sequencer.Clamp(filled, 0, width)
	bar := strings.Repeat(string(th.Symbols.GateFull), filled) +
		strings.Repeat(string(th.Symbols.GateEmpty), width-filled)
	return lipgloss.NewStyle().Foreground(th.GateColor(gate)).Render(bar)
}

// stepSymbol picks the grid glyph for a step
func stepSymbol(th *theme.Theme, step sequencer.Step, isCursor, isPlayhead bool) rune {
	s := th.Symbols
	switch {
	case isCursor && isPlayhead:
		return s.CursorPlayhead
	case isCursor && step.Active:
		return s.CursorActive
	case isCursor:
		return s.CursorRest
	case isPlayhead:
		return s.StepPlayhead
	case step.Active:
		return s.StepActive
	}
	return s.StepRest
}

func cell(text string) string {
	return lipgloss.NewStyle().Width(cellWidth).Render(text)
}

// RenderChordLane renders the four chord names centered over their regions
func RenderChordLane(th *theme.Theme, chords [sequencer.NumChords]string) string {
	style := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	sep := lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.ChordSep))

	parts := make([]string, len(chords))
	for i, c := range chords {
		if c == "" {
			c = "-"
		}
		parts[i] = lipgloss.PlaceHorizontal(regionWidth, lipgloss.Center, style.Render(c))
	}
	return strings.Join(parts, sep)
}

// RenderSequence renders the chord lane over a grid of 16 steps: glyph,
// note, gate bar and step number per column. cursor and playhead are step
// indices, -1 for none.
func RenderSequence(th *theme.Theme, p sequencer.Progression, cursor, playhead int) string {
	sep := lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.ChordSep))
	activeStyle := lipgloss.NewStyle().Foreground(th.Active())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	var glyphs, notes, gates, numbers strings.Builder
	for i, step := range p.Steps {
		if i > 0 && i%sequencer.StepsPerChord == 0 {
			glyphs.WriteString(sep)
			notes.WriteString(sep)
			gates.WriteString(sep)
			numbers.WriteString(sep)
		}

		isCursor := i == cursor
		symbol := string(stepSymbol(th, step, isCursor, i == playhead))
		switch {
		case isCursor:
			symbol = cursorStyle.Render(symbol)
		case step.Active:
			symbol = activeStyle.Render(symbol)
		default:
			symbol = dimStyle.Render(symbol)
		}
		glyphs.WriteString(cell(symbol))

		if step.Active && step.Note != nil {
			notes.WriteString(cell(step.Note.String()))
			gates.WriteString(cell(RenderGate(th, step.Gate, cellWidth-1)))
		} else {
			notes.WriteString(cell(dimStyle.Render("-")))
			gates.WriteString(cell(""))
		}
		numbers.WriteString(cell(dimStyle.Render(fmt.Sprintf("%d", i+1))))
	}

	return strings.Join([]string{
		RenderChordLane(th, p.Chords),
		glyphs.String(),
		notes.String(),
		gates.String(),
		numbers.String(),
	}, "\n")
}

// RenderNoteOptions lists chord tones then scale tones, bracketing the
// selected entry (an index across both lists)
func RenderNoteOptions(th *theme.Theme, chordTones, scaleTones []theory.Note, selected int) string {
	chordStyle := lipgloss.NewStyle().Foreground(th.Accent())
	scaleStyle := lipgloss.NewStyle().Foreground(th.FG())
	selStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)

	render := func(notes []theory.Note, offset int, style lipgloss.Style) string {
		parts := make([]string, len(notes))
		for i, n := range notes {
			if offset+i == selected {
				parts[i] = selStyle.Render("[" + n.String() + "]")
			} else {
				parts[i] = style.Render(n.String())
			}
		}
		return strings.Join(parts, " ")
	}

	return fmt.Sprintf("chord: %s\nscale: %s",
		render(chordTones, 0, chordStyle),
		render(scaleTones, len(chordTones), scaleStyle))
}

// RenderLegendItem renders a single legend item: "● Name - description"
func RenderLegendItem(color lipgloss.Color, symbol rune, name, desc string) string {
	pad := lipgloss.NewStyle().Foreground(color).Render(string(symbol))
	return fmt.Sprintf("  %s %s - %s", pad, name, desc)
}

// RenderLegend explains the grid glyphs
func RenderLegend(th *theme.Theme) string {
	s := th.Symbols
	return strings.Join([]string{
		RenderLegendItem(th.Active(), s.StepActive, "note", "sounding step"),
		RenderLegendItem(th.Muted(), s.StepRest, "rest", "silent step"),
		RenderLegendItem(th.Cursor(), s.CursorActive, "cursor", "selected step"),
		RenderLegendItem(th.Accent(), s.StepPlayhead, "playhead", "step now playing"),
	}, "\n")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
