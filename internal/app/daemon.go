package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"weavectl/internal/config"
	"weavectl/internal/daemon"
)

// DaemonStatus represents current information about the daemon process.
type DaemonStatus struct {
	Running bool
	PID     int
	Socket  string
	// Launched counts clients started by the daemon that are still running.
	Launched int
}

// Status probes the socket and pid file. A pid file left by a crashed daemon
// yields an error alongside the stopped status.
func (a *App) Status() (DaemonStatus, error) {
	h := probeDaemon(context.Background())
	st := DaemonStatus{Running: h.Responding, PID: h.PID, Socket: h.Socket, Launched: h.Launched}
	if h.StaleRemoved {
		st.PID = 0
		return st, fmt.Errorf("daemon pid %d exited without cleanup; removed stale %s", h.PID, daemon.PIDPath())
	}
	return st, nil
}

// StopDaemon attempts to stop the running daemon.
func (a *App) StopDaemon(force bool) error {
	return daemon.StopRunningDaemon(force)
}

// DaemonHandle holds a running daemon instance.
type DaemonHandle struct {
	srv *daemon.Server
}

// Close stops the running daemon instance.
func (h *DaemonHandle) Close() error {
	if h == nil || h.srv == nil {
		return nil
	}
	return h.srv.Close()
}

// StartDaemon loads the config and starts the daemon in this process.
func (a *App) StartDaemon() (*DaemonHandle, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return nil, err
	}
	srv, err := daemon.StartDaemon(cfg)
	if err != nil {
		return nil, err
	}
	return &DaemonHandle{srv: srv}, nil
}

// WaitReady polls the socket until the daemon answers or timeout passes.
func (a *App) WaitReady(ctx context.Context, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		if !daemonIsRunning() {
			return notRunning()
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

// IsNotRunning reports whether err means the daemon could not be reached.
func IsNotRunning(err error) bool {
	return errors.Is(err, errDaemonNotRunning)
}
