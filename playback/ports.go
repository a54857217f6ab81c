package playback

import (
	"errors"
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// CoreMIDI can hang while enumerating
const portTimeout = 3 * time.Second

var (
	ErrPortTimeout = errors.New("timed out listing MIDI ports")
	ErrNoPort      = errors.New("no MIDI output port configured")
)

// OutPorts lists MIDI output port names
func OutPorts() ([]string, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		names := make([]string, len(outs))
		for i, out := range outs {
			names[i] = out.String()
		}
		return names, nil
	case <-time.After(portTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrPortTimeout
	}
}

// Open finds the first output port whose name contains name and opens it
func Open(name string) (Sender, error) {
	if name == "" {
		return nil, ErrNoPort
	}
	port, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("find port %q: %w", name, err)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("failed to open port: %w", err)
	}
	return send, nil
}

// Close releases the MIDI driver
func Close() {
	gomidi.CloseDriver()
}
