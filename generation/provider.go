// Package generation supplies whole progressions to a session. Providers
// return a validated sequencer.Progression or an error; a rejected payload
// never reaches the session.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"luthier/debug"
	"luthier/sequencer"
	"luthier/theory"
)

// FamousRiff is the style that emulates a named song.
const FamousRiff = "famous rock riff"

// Styles are the genre prompts a provider may honor.
var Styles = []string{
	"acid techno", "blues", "californian punk", "charly garcía", "classic rock", "ebm",
	"electro", "hard rock", "hardcore", "industrial techno", "jazz",
	"milonga", "minimal techno", "progressive rock", "psychedelic rock",
	"punk", FamousRiff, "seattle grunge", "tango",
}

// DefaultStyle is used when a request leaves Style blank.
const DefaultStyle = "industrial techno"

var ErrInvalidRequest = errors.New("invalid generation request")

// Request describes what to generate.
type Request struct {
	Root     theory.Root `json:"root"`
	Mode     theory.Mode `json:"mode"`
	Octave   int         `json:"octave"`
	Pulses   int         `json:"pulses"`
	Style    string      `json:"style"`
	Negative bool        `json:"negativeHarmony"`
	Song     string      `json:"song,omitempty"` // only for FamousRiff
}

// RequestFromSettings builds a request from the current session settings.
func RequestFromSettings(set sequencer.Settings, style, song string) Request {
	if style == "" {
		style = DefaultStyle
	}
	return Request{
		Root:     set.Root,
		Mode:     set.Mode,
		Octave:   set.Octave,
		Pulses:   set.Pulses,
		Style:    style,
		Negative: set.Negative,
		Song:     song,
	}
}

// Validate checks ranges and that a famous-riff request names its song.
func (r Request) Validate() error {
	switch {
	case r.Root.Name == "":
		return fmt.Errorf("%w: missing root", ErrInvalidRequest)
	case r.Octave < sequencer.MinOctave || r.Octave > sequencer.MaxOctave:
		return fmt.Errorf("%w: octave %d", ErrInvalidRequest, r.Octave)
	case r.Pulses < sequencer.MinPulses || r.Pulses > sequencer.MaxPulses:
		return fmt.Errorf("%w: pulses %d", ErrInvalidRequest, r.Pulses)
	case r.Style == FamousRiff && r.Song == "":
		return fmt.Errorf("%w: %s needs a song", ErrInvalidRequest, FamousRiff)
	}
	return nil
}

// Provider produces a progression for a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (sequencer.Progression, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (sequencer.Progression, error)

func (f ProviderFunc) Generate(ctx context.Context, req Request) (sequencer.Progression, error) {
	return f(ctx, req)
}

// Decode reads one {"chords": [...], "sequence": [...]} payload. The payload
// must have exactly four chords and sixteen steps that each satisfy the step
// invariant; anything else is sequencer.ErrInvalidShape.
func Decode(r io.Reader) (sequencer.Progression, error) {
	var p sequencer.Progression
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		if errors.Is(err, sequencer.ErrInvalidShape) {
			return sequencer.Progression{}, err
		}
		return sequencer.Progression{}, fmt.Errorf("%w: %w", sequencer.ErrInvalidShape, err)
	}
	return p, nil
}

// FileProvider serves the payload stored at Path, ignoring the request.
type FileProvider struct {
	Path string
}

func (f FileProvider) Generate(ctx context.Context, req Request) (sequencer.Progression, error) {
	if err := ctx.Err(); err != nil {
		return sequencer.Progression{}, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return sequencer.Progression{}, fmt.Errorf("open payload: %w", err)
	}
	defer file.Close()

	p, err := Decode(file)
	if err != nil {
		debug.Log("sequencer", "rejected payload %s: %v", f.Path, err)
		return sequencer.Progression{}, fmt.Errorf("%s: %w", f.Path, err)
	}
	return p, nil
}
