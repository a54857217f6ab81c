package cmd

import (
	"github.com/spf13/cobra"

	"luthier/debug"
)

var (
	debugLog  bool
	debugOnly []string
)

var rootCmd = &cobra.Command{
	Use:   "luthier",
	Short: "Bass line step sequencer",
	Long: `luthier edits 16-step bass lines over four-chord progressions.
Run "luthier tui" for the editor or "luthier serve" for the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !debugLog {
			return nil
		}
		debug.Only(debugOnly...)
		return debug.Enable()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write a debug log to "+debug.Path())
	rootCmd.PersistentFlags().StringSliceVar(&debugOnly, "debug-only", nil, "log only these categories, e.g. server,playback")
}

func Execute() {
	err := rootCmd.Execute()
	debug.Disable()
	cobra.CheckErr(err)
}
