package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var modinfoTimeout int

func init() {
	rootCmd.AddCommand(cmdModinfo)
	cmdModinfo.Flags().IntVar(&modinfoTimeout, "timeout", 3, "Timeout in seconds for contacting the daemon")
}

var cmdModinfo = &cobra.Command{
	Use:   "modinfo <jar>",
	Short: "Print the weave.mod.json packaged in a mod jar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := controller().ReadModConfig(cmd.Context(), args[0], seconds(modinfoTimeout))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name:        %s\n", cfg.Name)
		fmt.Fprintf(out, "version:     %s\n", cfg.Version)
		fmt.Fprintf(out, "description: %s\n", cfg.Description)
		authors := "-"
		if len(cfg.Authors) > 0 {
			authors = strings.Join(cfg.Authors, ", ")
		}
		fmt.Fprintf(out, "authors:     %s\n", authors)
		return nil
	},
}
