package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/wrapperspb"

	weavev1 "weavectl/api/weave/v1"
)

// ErrNoPIDs is returned by Kill when nothing was selected.
var ErrNoPIDs = errors.New("provide at least one pid")

// KillParams configures kill command semantics.
type KillParams struct {
	PIDs    []uint32
	Timeout time.Duration
}

// KillEvent describes the outcome for one pid.
type KillEvent struct {
	Kind string // "success", "not_found" or "kill_failure"
	PID  uint32
	Err  error
}

// KillResult aggregates the command outcome.
type KillResult struct {
	Events    []KillEvent
	Successes int
}

// Kill asks the daemon to terminate each pid. A pid that is neither in the
// daemon's last scan nor one of its launched clients is reported as
// not_found.
func (a *App) Kill(ctx context.Context, params KillParams) (KillResult, error) {
	var result KillResult
	if len(params.PIDs) == 0 {
		return result, ErrNoPIDs
	}
	for _, pid := range params.PIDs {
		if pid == 0 {
			return result, fmt.Errorf("invalid pid: %d", pid)
		}
	}

	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		for _, pid := range params.PIDs {
			resp, err := client.Kill(ctx, wrapperspb.UInt32(pid))
			switch {
			case err != nil:
				result.Events = append(result.Events, KillEvent{
					Kind: "kill_failure",
					PID:  pid,
					Err:  fmt.Errorf("kill RPC failed: %w", err),
				})
			case !resp.GetValue():
				result.Events = append(result.Events, KillEvent{Kind: "not_found", PID: pid})
			default:
				result.Events = append(result.Events, KillEvent{Kind: "success", PID: pid})
				result.Successes++
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	switch {
	case result.Successes == len(params.PIDs):
		return result, nil
	case result.Successes == 0:
		return result, errors.New("no processes were killed (see output above)")
	default:
		return result, fmt.Errorf("partially successful: killed %d/%d processes", result.Successes, len(params.PIDs))
	}
}
