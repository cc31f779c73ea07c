package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"weavectl/internal/app"
)

var (
	launchProfile string
	launchTimeout int
)

func init() {
	rootCmd.AddCommand(cmdLaunch)
	cmdLaunch.Flags().StringVarP(&launchProfile, "profile", "p", "", "TOML launch profile")
	cmdLaunch.Flags().IntVar(&launchTimeout, "timeout", 5, "Timeout in seconds for contacting the daemon")
}

var cmdLaunch = &cobra.Command{
	Use:   "launch --profile <file.toml>",
	Short: "Start a client with the Weave loader attached",
	Long:  "Reads a launch profile, asks the daemon to start the client with -javaagent pointing at the installed loader and prints where its console log is written.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if launchProfile == "" {
			return errors.New("--profile is required")
		}
		req, err := app.LoadProfile(launchProfile)
		if err != nil {
			return err
		}
		inst, err := controller().Launch(cmd.Context(), req, seconds(launchTimeout))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Launched %s pid=%d log=%s\n", inst.Client, inst.PID, inst.LogPath)
		return nil
	},
}
