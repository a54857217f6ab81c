package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"luthier/rhythm"
	"luthier/sequencer"
	"luthier/theory"
)

var scaleOctaves []int

func init() {
	scaleCmd.Flags().IntSliceVar(&scaleOctaves, "octaves", nil, "also list playable notes in these octaves, e.g. 1,2")
	rootCmd.AddCommand(scaleCmd, detectCmd, euclidCmd, mirrorCmd)
}

var scaleCmd = &cobra.Command{
	Use:   "scale <root> [major|minor]",
	Short: "Print a scale",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := theory.ParseRoot(args[0])
		if err != nil {
			return err
		}
		mode := theory.Major
		if len(args) == 2 {
			if mode, err = theory.ParseMode(args[1]); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", root.Name, mode, strings.Join(root.ScaleNames(mode), " "))
		if len(scaleOctaves) > 0 {
			for _, o := range scaleOctaves {
				if o < sequencer.MinOctave || o > sequencer.MaxOctave {
					return fmt.Errorf("octave %d outside %d..%d", o, sequencer.MinOctave, sequencer.MaxOctave)
				}
			}
			names := make([]string, 0)
			for _, n := range root.PlayableNotes(scaleOctaves) {
				names = append(names, n.String())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "playable: %s\n", strings.Join(names, " "))
		}
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect <chord>...",
	Short: "Guess the scale of a chord progression",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, token := range args {
			if _, err := theory.ParseChord(token); err != nil {
				return err
			}
		}
		match, ok := theory.DetectScale(args)
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no scale found")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pitch classes in scale)\n", match, match.Score)
		return nil
	},
}

var euclidCmd = &cobra.Command{
	Use:   "euclid <steps> <pulses>",
	Short: "Print a Euclidean rhythm",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("steps: %w", err)
		}
		pulses, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("pulses: %w", err)
		}
		pattern := rhythm.Euclidean(steps, pulses)
		fmt.Fprintf(cmd.OutOrStdout(), "E(%d,%d) %s  %d hits\n", steps, pulses, rhythm.Format(pattern), rhythm.Count(pattern))
		return nil
	},
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror <root> <note-or-chord>...",
	Short: "Reflect notes and chords into negative harmony",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := theory.ParseRoot(args[0])
		if err != nil {
			return err
		}
		out := make([]string, 0, len(args)-1)
		for _, token := range args[1:] {
			if n, err := theory.ParseNote(token); err == nil {
				out = append(out, theory.MirrorNote(n, root).String())
				continue
			}
			mirrored, err := theory.MirrorChordToken(token, root)
			if err != nil {
				return err
			}
			out = append(out, mirrored)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out, " "))
		return nil
	},
}
