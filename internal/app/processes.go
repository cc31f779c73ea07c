package app

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/launcher"
	"weavectl/internal/model"
)

// Scan asks the daemon for a fresh snapshot of running clients.
func (a *App) Scan(ctx context.Context, timeout time.Duration) ([]model.ProcessRecord, error) {
	var records []model.ProcessRecord
	err := a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		resp, err := client.Scan(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("daemon scan RPC failed: %w", err)
		}
		return weavev1.DecodeList(resp, &records)
	})
	return records, err
}

// Running lists the clients this daemon launched that are still alive.
func (a *App) Running(ctx context.Context, timeout time.Duration) ([]launcher.Instance, error) {
	var instances []launcher.Instance
	err := a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		resp, err := client.Running(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("daemon running RPC failed: %w", err)
		}
		return weavev1.DecodeList(resp, &instances)
	})
	return instances, err
}

// Focus selects the instance whose console lines are forwarded. Zero clears
// the selection.
func (a *App) Focus(ctx context.Context, pid uint32, timeout time.Duration) error {
	return a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		if _, err := client.Focus(ctx, wrapperspb.UInt32(pid)); err != nil {
			return fmt.Errorf("daemon focus RPC failed: %w", err)
		}
		return nil
	})
}

// MemoryUsage is the daemon's resident memory against the host total.
type MemoryUsage struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

// Memory reports the daemon's memory usage.
func (a *App) Memory(ctx context.Context, timeout time.Duration) (MemoryUsage, error) {
	var usage MemoryUsage
	err := a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		resp, err := client.Memory(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("daemon memory RPC failed: %w", err)
		}
		return weavev1.DecodeStruct(resp, &usage)
	})
	return usage, err
}
