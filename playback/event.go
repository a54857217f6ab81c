package playback

import (
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"luthier/sequencer"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Velocity is used for every note on
const Velocity uint8 = 100

// Event is one MIDI message scheduled relative to the start of a step
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
	At       time.Duration
}

// Message converts the event to a gomidi message
func (e Event) Message() gomidi.Message {
	if e.Type == NoteOn {
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	}
	return gomidi.NoteOff(e.Channel, e.Note)
}

// SixteenthDuration returns the length of one step at bpm.
// 1 beat = 4 sixteenth notes, so 16th = (60/BPM)/4 seconds
func SixteenthDuration(bpm int) time.Duration {
	bpm = sequencer.Clamp(bpm, sequencer.MinTempo, sequencer.MaxTempo)
	return time.Duration(float64(time.Second) * 60.0 / float64(bpm) / 4.0)
}

// StepEvents returns the note on at the step start and the note off after
// gate * stepDuration. Resting steps produce nothing. A zero gate on an
// active step plays as the default gate.
func StepEvents(step sequencer.Step, channel uint8, stepDuration time.Duration) []Event {
	if !step.Active || step.Note == nil {
		return nil
	}
	gate := step.Gate
	if gate <= 0 {
		gate = sequencer.DefaultGate
	}
	key := uint8(sequencer.Clamp(step.Note.MIDI(), 0, 127))
	return []Event{
		{Type: NoteOn, Channel: channel, Note: key, Velocity: Velocity},
		{Type: NoteOff, Channel: channel, Note: key, At: time.Duration(float64(stepDuration) * gate)},
	}
}
