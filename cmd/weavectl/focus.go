package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdFocus)
	cmdFocus.Flags().IntVar(&focusTimeout, "timeout", 3, "Timeout in seconds for contacting the daemon")
}

var focusTimeout int

var cmdFocus = &cobra.Command{
	Use:   "focus <pid>",
	Short: "Forward console output of the given client (0 clears the selection)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}
		if err := controller().Focus(cmd.Context(), pid, seconds(focusTimeout)); err != nil {
			return err
		}
		if pid == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Selection cleared")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Focused pid %d\n", pid)
		}
		return nil
	},
}

func parsePID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	return uint32(v), nil
}
