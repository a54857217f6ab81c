package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"luthier/config"
	"luthier/playback"
)

var (
	watchPorts bool
	sendTest   bool
)

func init() {
	portsCmd.Flags().BoolVar(&watchPorts, "watch", false, "keep polling for port changes")
	portsCmd.Flags().BoolVar(&sendTest, "test", false, "play a C2 on the configured port")
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer playback.Close()
		out := cmd.OutOrStdout()

		if sendTest {
			return playTestNote(out, loadConfig())
		}
		if watchPorts {
			return pollPorts(out)
		}

		names, err := playback.OutPorts()
		if errors.Is(err, playback.ErrPortTimeout) {
			return fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
		}
		if err != nil {
			return err
		}
		printPorts(out, names)
		return nil
	},
}

func printPorts(out io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(out, "no MIDI output ports")
		return
	}
	for i, name := range names {
		fmt.Fprintf(out, "  %d: %s\n", i, name)
	}
}

func pollPorts(out io.Writer) error {
	fmt.Fprintln(out, "Polling for port changes every 2 seconds. Ctrl+C to exit.")
	last := "-"
	for {
		names, err := playback.OutPorts()
		if err != nil {
			return err
		}
		if current := strings.Join(names, ","); current != last {
			fmt.Fprintf(out, "\n[%s] ports changed\n", time.Now().Format("15:04:05"))
			printPorts(out, names)
			last = current
		}
		time.Sleep(2 * time.Second)
	}
}

func playTestNote(out io.Writer, cfg *config.Config) error {
	send, err := playback.Open(cfg.MIDI.Port)
	if err != nil {
		return err
	}
	channel := uint8(cfg.MIDI.Channel)
	on := playback.Event{Type: playback.NoteOn, Channel: channel, Note: 36, Velocity: playback.Velocity}
	off := playback.Event{Type: playback.NoteOff, Channel: channel, Note: 36}

	fmt.Fprintf(out, "C2 on %s channel %d\n", cfg.MIDI.Port, cfg.MIDI.Channel+1)
	if err := send(on.Message()); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)
	return send(off.Message())
}
