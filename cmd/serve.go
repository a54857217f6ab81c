package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"luthier/generation"
	"luthier/sequencer"
	"luthier/server"
)

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions over HTTP",
	Long:  `Serves editing sessions as JSON over HTTP for browser front ends.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		set, err := cfg.Settings()
		if err != nil {
			return err
		}
		addr := listenAddr
		if addr == "" {
			addr = cfg.Server.Listen
		}

		s := server.New(set, generation.LocalProvider{Rand: &sequencer.LockedRand{R: newRand()}})
		s.NewRand = func() sequencer.Rand { return newRand() }
		fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
		return s.ListenAndServe(addr)
	},
}
