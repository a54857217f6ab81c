package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"luthier/generation"
	"luthier/theory"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <payload.json>",
	Short: "Validate a generation payload",
	Long: `Validates a {"chords": [...], "sequence": [...]} payload: four chords,
sixteen numbered steps, and a note with a gate in (0,1] on every active step.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		p, err := generation.Decode(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ok: %s, %d active steps\n", strings.Join(p.Chords[:], " "), p.ActiveCount())
		if match, ok := theory.DetectScale(p.Chords[:]); ok {
			fmt.Fprintf(out, "scale: %s\n", match)
		}
		return nil
	},
}
