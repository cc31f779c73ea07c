package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdRunning)
	cmdRunning.Flags().IntVar(&runningTimeout, "timeout", 3, "Timeout in seconds for contacting the daemon")
}

var runningTimeout int

var cmdRunning = &cobra.Command{
	Use:   "running",
	Short: "List clients launched by the daemon that are still alive",
	RunE: func(cmd *cobra.Command, args []string) error {
		instances, err := controller().Running(cmd.Context(), seconds(runningTimeout))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(instances) == 0 {
			fmt.Fprintln(out, "No launched clients")
			return nil
		}
		for _, inst := range instances {
			fmt.Fprintf(out, "pid=%d client=%s started=%s log=%s\n",
				inst.PID, inst.Client, inst.StartedAt.Local().Format("15:04:05"), inst.LogPath)
		}
		return nil
	},
}
