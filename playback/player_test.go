package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"luthier/sequencer"
	"luthier/theory"
)

type recorder struct {
	mu   sync.Mutex
	msgs []gomidi.Message
}

func (r *recorder) send(msg gomidi.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) snapshot() []gomidi.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gomidi.Message(nil), r.msgs...)
}

func progression(t *testing.T) sequencer.Progression {
	t.Helper()
	p, err := sequencer.Empty().ToggleStep(0, theory.MustParseRoot("C"), 2)
	require.NoError(t, err)
	return p
}

func TestSixteenthDuration(t *testing.T) {
	assert.Equal(t, 125*time.Millisecond, SixteenthDuration(120))
	assert.Equal(t, 250*time.Millisecond, SixteenthDuration(60))
	assert.Equal(t, SixteenthDuration(sequencer.MaxTempo), SixteenthDuration(1000))
}

func TestStepEvents(t *testing.T) {
	assert := assert.New(t)
	c2 := theory.MustParseNote("C2")
	step := sequencer.Step{Position: 1, Note: &c2, Active: true, Gate: 0.5}

	events := StepEvents(step, 3, 100*time.Millisecond)
	require.Len(t, events, 2)
	assert.Equal(Event{Type: NoteOn, Channel: 3, Note: 36, Velocity: Velocity}, events[0])
	assert.Equal(Event{Type: NoteOff, Channel: 3, Note: 36, At: 50 * time.Millisecond}, events[1])

	step.Gate = 0
	events = StepEvents(step, 0, 100*time.Millisecond)
	assert.Equal(80*time.Millisecond, events[1].At)

	assert.Empty(StepEvents(sequencer.Step{Position: 2}, 0, time.Second))
}

func TestEventMessage(t *testing.T) {
	var ch, key, vel uint8
	msg := Event{Type: NoteOn, Channel: 1, Note: 36, Velocity: 100}.Message()
	require.True(t, msg.GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(1), ch)
	assert.Equal(t, uint8(36), key)
	assert.Equal(t, uint8(100), vel)

	msg = Event{Type: NoteOff, Channel: 1, Note: 36}.Message()
	assert.True(t, msg.GetNoteOff(&ch, &key, &vel))
}

func TestTickSendsActiveSteps(t *testing.T) {
	rec := &recorder{}
	p := progression(t)
	player := NewPlayer(func() sequencer.Progression { return p }, rec.send)
	player.SetTempo(240)

	index, dur := player.Tick()
	assert.Equal(t, 0, index)
	assert.Equal(t, 62500*time.Microsecond, dur)
	assert.Equal(t, 0, <-player.PlayheadChan)

	msgs := rec.snapshot()
	require.Len(t, msgs, 1)
	var ch, key, vel uint8
	assert.True(t, msgs[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(36), key)

	// note off follows after gate * step
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, rec.snapshot()[1].GetNoteOff(&ch, &key, &vel))

	// resting step sends nothing
	index, _ = player.Tick()
	assert.Equal(t, 1, index)
	assert.Len(t, rec.snapshot(), 2)
}

func TestFullGateDoesNotCutNextNote(t *testing.T) {
	root := theory.MustParseRoot("C")
	p, err := sequencer.Empty().ToggleStep(0, root, 2)
	require.NoError(t, err)
	p, err = p.ToggleStep(1, root, 2)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		p, err = p.SetGate(i, sequencer.MaxGate)
		require.NoError(t, err)
	}

	rec := &recorder{}
	player := NewPlayer(func() sequencer.Progression { return p }, rec.send)
	player.SetTempo(sequencer.MaxTempo)

	// the second step starts before the first one's scheduled note off
	player.Tick()
	player.Tick()

	kinds := func() []string {
		var out []string
		var ch, key, vel uint8
		for _, msg := range rec.snapshot() {
			switch {
			case msg.GetNoteOn(&ch, &key, &vel):
				out = append(out, "on")
			case msg.GetNoteOff(&ch, &key, &vel):
				out = append(out, "off")
			}
			assert.Equal(t, uint8(36), key)
		}
		return out
	}
	assert.Equal(t, []string{"on", "off", "on"}, kinds())

	// only the second step's own note off follows
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * SixteenthDuration(sequencer.MaxTempo))
	assert.Equal(t, []string{"on", "off", "on", "off"}, kinds())
}

func TestPlayheadWraps(t *testing.T) {
	player := NewPlayer(sequencer.Empty, nil)
	for i := 0; i < sequencer.NumSteps; i++ {
		index, _ := player.Tick()
		assert.Equal(t, i, index)
	}
	index, _ := player.Tick()
	assert.Equal(t, 0, index)
}

func TestStopSilencesSoundingNote(t *testing.T) {
	rec := &recorder{}
	p := progression(t)
	player := NewPlayer(func() sequencer.Progression { return p }, rec.send)
	player.SetTempo(sequencer.MinTempo)

	player.Play()
	assert.True(t, player.IsPlaying())
	assert.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, time.Second, time.Millisecond)
	player.Stop()
	assert.False(t, player.IsPlaying())
	assert.Equal(t, 0, player.Playhead)

	msgs := rec.snapshot()
	var ch, key, vel uint8
	assert.True(t, msgs[len(msgs)-1].GetNoteOff(&ch, &key, &vel))
	assert.Equal(t, uint8(36), key)
}

func TestToggle(t *testing.T) {
	player := NewPlayer(sequencer.Empty, nil)
	player.Toggle()
	assert.True(t, player.IsPlaying())
	player.Toggle()
	assert.False(t, player.IsPlaying())
}
