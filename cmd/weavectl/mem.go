package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdMem)
	cmdMem.Flags().IntVar(&memTimeout, "timeout", 3, "Timeout in seconds for contacting the daemon")
}

var memTimeout int

var cmdMem = &cobra.Command{
	Use:   "mem",
	Short: "Show the daemon's memory usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := controller().Memory(cmd.Context(), seconds(memTimeout))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatMemory(usage.Used, usage.Total))
		return nil
	},
}

func formatMemory(used, total uint64) string {
	if total == 0 {
		return humanize.IBytes(used) + " used"
	}
	pct := float64(used) / float64(total) * 100
	return fmt.Sprintf("%s / %s (%.2f%%)", humanize.IBytes(used), humanize.IBytes(total), pct)
}
