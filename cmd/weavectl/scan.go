package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"weavectl/internal/model"
)

func init() {
	rootCmd.AddCommand(cmdScan)
	cmdScan.Flags().IntVar(&scanTimeout, "timeout", 5, "Timeout in seconds for the scan")
	cmdScan.Flags().BoolVar(&scanShowCmd, "cmd", false, "Print each client's full command line")
}

var (
	scanTimeout int
	scanShowCmd bool
)

var cmdScan = &cobra.Command{
	Use:   "scan",
	Short: "List running Minecraft clients",
	Long:  "Asks the daemon to re-read the OS process table and prints every JVM that looks like a Minecraft client.",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := controller().Scan(cmd.Context(), seconds(scanTimeout))
		if err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), records, scanShowCmd)
		return nil
	},
}

func printRecords(w io.Writer, records []model.ProcessRecord, withCmd bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No clients running")
		return
	}
	for _, rec := range records {
		agent := "no"
		if rec.AgentAttached {
			agent = "yes"
		}
		fmt.Fprintf(w, "pid=%d client=%s version=%s weave=%s\n", rec.PID, rec.Info.Client, rec.Info.Version, agent)
		if withCmd {
			fmt.Fprintf(w, "  cwd=%s\n  cmd=%s\n", rec.Info.Cwd, strings.Join(rec.Info.Cmd, " "))
		}
	}
}
