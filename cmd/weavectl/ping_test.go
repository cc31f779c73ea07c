package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"weavectl/internal/app"
	"weavectl/internal/eventbus"
	"weavectl/internal/launcher"
	"weavectl/internal/model"
)

type stubController struct {
	pingFunc   func(ctx context.Context, timeout time.Duration) (string, error)
	scanFunc   func(ctx context.Context, timeout time.Duration) ([]model.ProcessRecord, error)
	killFunc   func(ctx context.Context, params app.KillParams) (app.KillResult, error)
	memFunc    func(ctx context.Context, timeout time.Duration) (app.MemoryUsage, error)
	focusFunc  func(ctx context.Context, pid uint32, timeout time.Duration) error
	followFunc func(ctx context.Context, timeout time.Duration, fn func(eventbus.Event) error) error
	verifyFunc func(ctx context.Context, expected string, timeout time.Duration) (bool, error)
	statusFunc func() (app.DaemonStatus, error)
}

func (s *stubController) Ping(ctx context.Context, timeout time.Duration) (string, error) {
	if s.pingFunc != nil {
		return s.pingFunc(ctx, timeout)
	}
	return "", errors.New("ping not implemented")
}

func (s *stubController) Scan(ctx context.Context, timeout time.Duration) ([]model.ProcessRecord, error) {
	if s.scanFunc != nil {
		return s.scanFunc(ctx, timeout)
	}
	panic("Scan not implemented")
}

func (s *stubController) Running(ctx context.Context, timeout time.Duration) ([]launcher.Instance, error) {
	panic("Running not implemented")
}

func (s *stubController) Launch(ctx context.Context, req model.LaunchRequest, timeout time.Duration) (launcher.Instance, error) {
	panic("Launch not implemented")
}

func (s *stubController) Focus(ctx context.Context, pid uint32, timeout time.Duration) error {
	if s.focusFunc != nil {
		return s.focusFunc(ctx, pid, timeout)
	}
	panic("Focus not implemented")
}

func (s *stubController) Kill(ctx context.Context, params app.KillParams) (app.KillResult, error) {
	if s.killFunc != nil {
		return s.killFunc(ctx, params)
	}
	panic("Kill not implemented")
}

func (s *stubController) Memory(ctx context.Context, timeout time.Duration) (app.MemoryUsage, error) {
	if s.memFunc != nil {
		return s.memFunc(ctx, timeout)
	}
	panic("Memory not implemented")
}

func (s *stubController) ReadModConfig(ctx context.Context, path string, timeout time.Duration) (model.ModConfig, error) {
	panic("ReadModConfig not implemented")
}

func (s *stubController) VerifyLoader(ctx context.Context, expected string, timeout time.Duration) (bool, error) {
	if s.verifyFunc != nil {
		return s.verifyFunc(ctx, expected, timeout)
	}
	panic("VerifyLoader not implemented")
}

func (s *stubController) Analytics(ctx context.Context, timeout time.Duration) (model.Analytics, error) {
	panic("Analytics not implemented")
}

func (s *stubController) Follow(ctx context.Context, timeout time.Duration, fn func(eventbus.Event) error) error {
	if s.followFunc != nil {
		return s.followFunc(ctx, timeout, fn)
	}
	panic("Follow not implemented")
}

func (s *stubController) Status() (app.DaemonStatus, error) {
	if s.statusFunc != nil {
		return s.statusFunc()
	}
	panic("Status not implemented")
}

func (s *stubController) StopDaemon(force bool) error {
	panic("StopDaemon not implemented")
}

func (s *stubController) StartDaemon() (*app.DaemonHandle, error) {
	panic("StartDaemon not implemented")
}

func (s *stubController) WaitReady(ctx context.Context, timeout time.Duration) error {
	panic("WaitReady not implemented")
}

func withController(t *testing.T, stub controllerAPI) {
	t.Helper()
	origFactory := controllerFactory
	controllerFactory = func() controllerAPI {
		return stub
	}
	t.Cleanup(func() {
		controllerFactory = origFactory
	})
}

func withOutput(t *testing.T, cmd *cobra.Command) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	origOut := cmd.OutOrStdout()
	cmd.SetOut(buf)
	t.Cleanup(func() {
		cmd.SetOut(origOut)
	})
	return buf
}

func TestPingSuccess(t *testing.T) {
	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			if timeout != 2*time.Second {
				t.Fatalf("expected timeout 2s, got %v", timeout)
			}
			return "pong", nil
		},
	})
	buf := withOutput(t, cmdPing)

	oldTimeout := pingTimeoutSeconds
	pingTimeoutSeconds = 2
	t.Cleanup(func() { pingTimeoutSeconds = oldTimeout })

	if err := cmdPing.RunE(cmdPing, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got := buf.String(); got != "pong\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestPingError(t *testing.T) {
	expected := errors.New("daemon down")
	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			return "", expected
		},
	})
	oldTimeout := pingTimeoutSeconds
	pingTimeoutSeconds = 1
	t.Cleanup(func() { pingTimeoutSeconds = oldTimeout })

	err := cmdPing.RunE(cmdPing, nil)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}
