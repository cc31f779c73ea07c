package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"weavectl/internal/app"
	"weavectl/internal/console"
	"weavectl/internal/eventbus"
)

var (
	consoleFocus   uint32
	consoleTimeout int
)

func init() {
	rootCmd.AddCommand(cmdConsole)
	cmdConsole.Flags().Uint32Var(&consoleFocus, "focus", 0, "Focus this pid before following")
	cmdConsole.Flags().IntVar(&consoleTimeout, "timeout", 3, "Timeout in seconds for connecting to the daemon")
}

var cmdConsole = &cobra.Command{
	Use:   "console",
	Short: "Follow the focused client's console and lifecycle events",
	Long:  "Streams events from the daemon until interrupted. Only the focused client's console lines are forwarded; use `focus` to switch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctl := controller()
		if consoleFocus != 0 {
			if err := ctl.Focus(ctx, consoleFocus, seconds(consoleTimeout)); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		for {
			err := ctl.Follow(ctx, seconds(consoleTimeout), func(ev eventbus.Event) error {
				printEvent(out, ev)
				return nil
			})
			if !errors.Is(err, app.ErrEventsLagged) {
				return err
			}
			fmt.Fprintln(out, "-- console fell behind, some lines were dropped; resubscribing")
		}
	},
}

func printEvent(w io.Writer, ev eventbus.Event) {
	switch ev.Type {
	case eventbus.EventConsoleLine:
		fmt.Fprintf(w, "[%d] %s\n", ev.PID, console.Sanitize(ev.Line))
	case eventbus.EventInstanceLaunched:
		fmt.Fprintf(w, "-- launched %s pid=%d log=%s\n", ev.Client, ev.PID, ev.LogPath)
	case eventbus.EventInstanceExited:
		fmt.Fprintf(w, "-- pid=%d exited with code %d\n", ev.PID, ev.ExitCode)
	case eventbus.EventProcessDiscovered:
		version := ""
		if ev.Process != nil {
			version = ev.Process.Info.Version
		}
		fmt.Fprintf(w, "-- found %s %s pid=%d\n", ev.Client, version, ev.PID)
	}
}

