package server

import (
	"luthier/sequencer"
	"luthier/theory"
)

type ErrorResponse struct {
	Error string `json:"detail"`
}

type SessionResponse struct {
	ID string `json:"id"`
	sequencer.State
}

// SettingsRequest updates only the fields present
type SettingsRequest struct {
	Root     *theory.Root `json:"root"`
	Mode     *theory.Mode `json:"mode"`
	Octave   *int         `json:"octave"`
	Pulses   *int         `json:"pulses"`
	Negative *bool        `json:"negative"`
}

type NoteRequest struct {
	Note *theory.Note `json:"note"`
}

type GateRequest struct {
	Gate float64 `json:"gate"`
}

type PulsesRequest struct {
	Pulses int `json:"pulses"`
}

type GenerateRequest struct {
	Style string `json:"style"`
	Song  string `json:"song"`
}

type NoteOptionsResponse struct {
	ChordTones []theory.Note `json:"chordTones"`
	ScaleTones []theory.Note `json:"scaleTones"`
}

type ScaleResponse struct {
	Root     string        `json:"root"`
	Mode     theory.Mode   `json:"mode"`
	Notes    []string      `json:"notes"`
	Playable []theory.Note `json:"playable"`
}

type EuclidResponse struct {
	Steps   int    `json:"steps"`
	Pulses  int    `json:"pulses"`
	Pattern []bool `json:"pattern"`
	Text    string `json:"text"`
}

type DetectResponse struct {
	Found bool   `json:"found"`
	Scale string `json:"scale,omitempty"`
	Root  string `json:"root,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Score int    `json:"score"`
}
