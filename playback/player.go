package playback

import (
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"luthier/debug"
	"luthier/sequencer"
)

// Sender delivers one MIDI message, as returned by gomidi.SendTo
type Sender func(msg gomidi.Message) error

// Player walks the 16 steps of a progression at a fixed tempo and sends
// each active step to a MIDI output.
type Player struct {
	Tempo    int // BPM
	Playhead int
	Playing  bool
	Channel  uint8

	source   func() sequencer.Progression
	send     Sender
	sounding int    // MIDI key currently on, -1 for none
	noteSeq  uint64 // bumped on every NoteOn; stale NoteOffs are dropped
	stopChan chan struct{}
	mu       sync.Mutex

	// Channel to notify TUI of playhead updates
	PlayheadChan chan int
}

// NewPlayer plays whatever source returns at each step, typically
// Session.Display. A nil send makes the player silent.
func NewPlayer(source func() sequencer.Progression, send Sender) *Player {
	return &Player{
		Tempo:        120,
		source:       source,
		send:         send,
		sounding:     -1,
		PlayheadChan: make(chan int, 1),
	}
}

// SetTempo changes the tempo, clamped to 40-240 BPM
func (p *Player) SetTempo(bpm int) {
	p.mu.Lock()
	p.Tempo = sequencer.Clamp(bpm, sequencer.MinTempo, sequencer.MaxTempo)
	p.mu.Unlock()
}

// IsPlaying reports whether the loop is running
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Playing
}

// Play starts the loop from the current playhead
func (p *Player) Play() {
	p.mu.Lock()
	if p.Playing {
		p.mu.Unlock()
		return
	}
	p.Playing = true
	p.stopChan = make(chan struct{})
	stop := p.stopChan
	p.mu.Unlock()

	go p.playLoop(stop)
}

// Stop halts the loop, silences the sounding note and rewinds
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.Playing {
		p.mu.Unlock()
		return
	}
	p.Playing = false
	close(p.stopChan)
	p.Playhead = 0
	p.mu.Unlock()

	p.silence()
}

// Toggle starts or stops playback
func (p *Player) Toggle() {
	if p.IsPlaying() {
		p.Stop()
	} else {
		p.Play()
	}
}

// Tick plays the step under the playhead, advances it and returns the
// index that was played along with the step length used.
func (p *Player) Tick() (int, time.Duration) {
	p.mu.Lock()
	index := p.Playhead
	p.Playhead = (p.Playhead + 1) % sequencer.NumSteps
	stepDuration := SixteenthDuration(p.Tempo)
	channel := p.Channel
	p.mu.Unlock()

	events := StepEvents(p.source().Steps[index], channel, stepDuration)
	if len(events) > 0 {
		// a full gate can still be sounding when the next step starts
		p.silence()
	}
	var seq uint64
	for _, e := range events {
		if e.At <= 0 {
			seq = p.emit(e)
			continue
		}
		time.AfterFunc(e.At, func() { p.release(e, seq) })
	}

	// Notify TUI
	select {
	case p.PlayheadChan <- index:
	default:
	}

	return index, stepDuration
}

func (p *Player) playLoop(stop chan struct{}) {
	for {
		_, stepDuration := p.Tick()

		// Wait for next step or stop
		select {
		case <-stop:
			return
		case <-time.After(stepDuration):
		}
	}
}

// emit sends e and returns the note sequence number after it
func (p *Player) emit(e Event) uint64 {
	p.mu.Lock()
	switch e.Type {
	case NoteOn:
		p.sounding = int(e.Note)
		p.noteSeq++
	case NoteOff:
		if p.sounding == int(e.Note) {
			p.sounding = -1
		}
	}
	seq := p.noteSeq
	p.mu.Unlock()

	p.deliver(e)
	return seq
}

// release sends a scheduled NoteOff only if no later note has started and
// the note was not already silenced.
func (p *Player) release(e Event, seq uint64) {
	p.mu.Lock()
	if p.noteSeq != seq || p.sounding != int(e.Note) {
		p.mu.Unlock()
		debug.LogEvery(16, "playback", "dropped stale note off %d", e.Note)
		return
	}
	p.sounding = -1
	p.mu.Unlock()

	p.deliver(e)
}

func (p *Player) deliver(e Event) {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()

	if send == nil {
		return
	}
	if err := send(e.Message()); err != nil {
		debug.LogEvery(16, "playback", "send failed: %v", err)
	}
}

func (p *Player) silence() {
	p.mu.Lock()
	key := p.sounding
	channel := p.Channel
	p.mu.Unlock()

	if key >= 0 {
		p.emit(Event{Type: NoteOff, Channel: channel, Note: uint8(key)})
	}
}
