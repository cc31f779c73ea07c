package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var analyticsTimeout int

func init() {
	rootCmd.AddCommand(cmdAnalytics)
	cmdAnalytics.Flags().IntVar(&analyticsTimeout, "timeout", 3, "Timeout in seconds for contacting the daemon")
}

var cmdAnalytics = &cobra.Command{
	Use:   "analytics",
	Short: "Show recorded launch times and play time",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := controller().Analytics(cmd.Context(), seconds(analyticsTimeout))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		played := time.Duration(data.TimePlayed) * time.Second
		fmt.Fprintf(out, "time played:         %s\n", played)
		fmt.Fprintf(out, "launches recorded:   %s\n", humanize.Comma(int64(len(data.LaunchTimes))))
		fmt.Fprintf(out, "average launch time: %.1fs\n", data.AverageLaunchTime)
		return nil
	},
}
