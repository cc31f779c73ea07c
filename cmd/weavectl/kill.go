package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weavectl/internal/app"
)

var killTimeout int

func init() {
	rootCmd.AddCommand(cmdKill)
	cmdKill.Flags().IntVar(&killTimeout, "timeout", 5, "Timeout in seconds for kill operations")
}

var cmdKill = &cobra.Command{
	Use:   "kill <pid>...",
	Short: "Terminate clients found by the last scan",
	Long:  "Sends a kill signal (via the daemon) to each pid. Only pids present in the daemon's latest scan are accepted.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pids := make([]uint32, 0, len(args))
		for _, arg := range args {
			pid, err := parsePID(arg)
			if err != nil {
				return err
			}
			pids = append(pids, pid)
		}

		res, err := controller().Kill(cmd.Context(), app.KillParams{
			PIDs:    pids,
			Timeout: seconds(killTimeout),
		})
		out := cmd.OutOrStdout()
		for _, event := range res.Events {
			switch event.Kind {
			case "success":
				fmt.Fprintf(out, "Killed pid=%d\n", event.PID)
			case "not_found":
				fmt.Fprintf(out, "pid=%d is not a scanned or launched client\n", event.PID)
			case "kill_failure":
				fmt.Fprintf(out, "Failed to kill pid=%d: %v\n", event.PID, event.Err)
			}
		}
		return err
	},
}
