package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"weavectl/internal/app"
	"weavectl/internal/eventbus"
	"weavectl/internal/launcher"
	"weavectl/internal/model"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "weavectl [command]",
	Short: "weavectl: launch and watch Minecraft clients with the Weave loader",
	Long: `weavectl talks to the weave daemon, which finds running Minecraft clients,
launches new ones with the Weave loader attached and streams their console output.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to daemon config file (JSON, TOML or YAML)")
}

type controllerAPI interface {
	Ping(ctx context.Context, timeout time.Duration) (string, error)
	Scan(ctx context.Context, timeout time.Duration) ([]model.ProcessRecord, error)
	Running(ctx context.Context, timeout time.Duration) ([]launcher.Instance, error)
	Launch(ctx context.Context, req model.LaunchRequest, timeout time.Duration) (launcher.Instance, error)
	Focus(ctx context.Context, pid uint32, timeout time.Duration) error
	Kill(ctx context.Context, params app.KillParams) (app.KillResult, error)
	Memory(ctx context.Context, timeout time.Duration) (app.MemoryUsage, error)
	ReadModConfig(ctx context.Context, path string, timeout time.Duration) (model.ModConfig, error)
	VerifyLoader(ctx context.Context, expected string, timeout time.Duration) (bool, error)
	Analytics(ctx context.Context, timeout time.Duration) (model.Analytics, error)
	Follow(ctx context.Context, dialTimeout time.Duration, fn func(eventbus.Event) error) error
	Status() (app.DaemonStatus, error)
	StopDaemon(force bool) error
	StartDaemon() (*app.DaemonHandle, error)
	WaitReady(ctx context.Context, timeout time.Duration) error
}

var controllerFactory = func() controllerAPI {
	return app.New(app.Options{ConfigPath: configPath})
}

func controller() controllerAPI {
	return controllerFactory()
}

// commandContext tolerates commands invoked without Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
