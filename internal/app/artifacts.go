package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/model"
)

// ReadModConfig returns the weave.mod.json packaged in the jar at path. The
// path is made absolute because the daemon runs with its own cwd.
func (a *App) ReadModConfig(ctx context.Context, path string, timeout time.Duration) (model.ModConfig, error) {
	var cfg model.ModConfig
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("path must not be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return cfg, err
	}
	err = a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		resp, err := client.ReadModConfig(ctx, wrapperspb.String(abs))
		if err != nil {
			return fmt.Errorf("daemon mod config RPC failed: %w", err)
		}
		return weavev1.DecodeStruct(resp, &cfg)
	})
	return cfg, err
}

// VerifyLoader compares the installed loader's SHA-256 with expected. The
// comparison is exact, so expected must be upper-case hex.
func (a *App) VerifyLoader(ctx context.Context, expected string, timeout time.Duration) (bool, error) {
	var ok bool
	err := a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		resp, err := client.VerifyLoader(ctx, wrapperspb.String(expected))
		if err != nil {
			return fmt.Errorf("daemon verify RPC failed: %w", err)
		}
		ok = resp.GetValue()
		return nil
	})
	return ok, err
}

// Analytics returns the launcher's recorded play statistics.
func (a *App) Analytics(ctx context.Context, timeout time.Duration) (model.Analytics, error) {
	var data model.Analytics
	err := a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		resp, err := client.Analytics(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("daemon analytics RPC failed: %w", err)
		}
		return weavev1.DecodeStruct(resp, &data)
	})
	return data, err
}
