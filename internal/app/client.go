package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/daemon"
)

var errDaemonNotRunning = errors.New("daemon is not running")

// Swapped out in tests.
var (
	daemonIsRunning  = daemon.IsRunning
	probeDaemon      = daemon.Probe
	dialDaemonClient = func(ctx context.Context) (weavev1.WeaveClient, io.Closer, error) {
		return daemon.Dial(ctx)
	}
)

func resetDaemonDeps() {
	daemonIsRunning = daemon.IsRunning
	probeDaemon = daemon.Probe
	dialDaemonClient = func(ctx context.Context) (weavev1.WeaveClient, io.Closer, error) {
		return daemon.Dial(ctx)
	}
}

// withClient runs fn against a fresh connection bounded by timeout. A daemon
// that goes away mid-call is reported as not running rather than as an RPC
// failure.
func (a *App) withClient(ctx context.Context, timeout time.Duration, fn func(context.Context, weavev1.WeaveClient) error) error {
	if timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	if !daemonIsRunning() {
		return notRunning()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, conn, err := dialDaemonClient(ctx)
	switch {
	case errors.Is(err, daemon.ErrUnavailable):
		return fmt.Errorf("%w: %v", errDaemonNotRunning, err)
	case err != nil:
		return fmt.Errorf("connect to daemon: %w", err)
	}
	if conn != nil {
		defer conn.Close()
	}

	err = fn(ctx, client)
	if status.Code(err) == codes.Unavailable {
		return fmt.Errorf("%w: %v", errDaemonNotRunning, err)
	}
	return err
}

func notRunning() error {
	return fmt.Errorf("%w (no answer on %s)", errDaemonNotRunning, daemon.SocketPath())
}
