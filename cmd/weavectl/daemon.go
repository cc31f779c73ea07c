package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdDaemon)
}

var (
	daemonForceRestart bool
	daemonStop         bool
)

func init() {
	cmdDaemon.Flags().BoolVarP(&daemonForceRestart, "force", "f", false, "Restart the daemon if it is already running")
	cmdDaemon.Flags().BoolVar(&daemonStop, "stop", false, "Stop the running daemon and exit")
}

var cmdDaemon = &cobra.Command{
	Use:   "daemon",
	Short: "Run the daemon in the foreground",
	Long:  `Starts the daemon that scans for clients, launches them and streams their output. If a daemon is already running nothing happens unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctl := controller()

		if daemonStop {
			if err := ctl.StopDaemon(true); err != nil {
				return err
			}
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		}

		status, err := ctl.Status()
		if err != nil && !status.Running {
			fmt.Fprintf(out, "Note: %v\n", err)
		}
		if status.Running {
			if !daemonForceRestart {
				switch {
				case err != nil:
					fmt.Fprintf(out, "Error checking if daemon is running: %v\n", err)
				case status.PID != 0:
					fmt.Fprintf(out, "Daemon is already running (pid %d, %d launched clients, socket %s). Stop it with --stop or re-run with --force.\n", status.PID, status.Launched, status.Socket)
				default:
					fmt.Fprintln(out, "Daemon is already running. Stop it with --stop or re-run with --force.")
				}
				return nil
			}
			fmt.Fprintln(out, "Stopping existing daemon process...")
			if err := ctl.StopDaemon(true); err != nil {
				return err
			}
		}

		handle, err := ctl.StartDaemon()
		if err != nil {
			return err
		}
		if err := ctl.WaitReady(commandContext(cmd), 3*time.Second); err != nil {
			handle.Close()
			return fmt.Errorf("daemon did not become ready: %w", err)
		}
		fmt.Fprintf(out, "Started daemon process (pid %d)\n", os.Getpid())
		runSpin := spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(out))
		runSpin.Suffix = " Running..."
		runSpin.Start()

		sigc := make(chan os.Signal, 2)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		runSpin.Stop()
		return handle.Close()
	},
}
