package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var verifyTimeout int

func init() {
	rootCmd.AddCommand(cmdVerify)
	cmdVerify.Flags().IntVar(&verifyTimeout, "timeout", 10, "Timeout in seconds for hashing the loader")
}

// errLoaderMismatch gives the command a non-zero exit on mismatch.
var errLoaderMismatch = errors.New("loader hash does not match")

var cmdVerify = &cobra.Command{
	Use:   "verify <sha256>",
	Short: "Check the installed loader against an upper-case SHA-256 hex digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := controller().VerifyLoader(cmd.Context(), args[0], seconds(verifyTimeout))
		if err != nil {
			return err
		}
		if !ok {
			return errLoaderMismatch
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Loader OK")
		return nil
	},
}
