package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/daemon"
	"weavectl/internal/eventbus"
)

// ErrEventsLagged means the daemon closed the event stream because this
// client fell behind. Some events were dropped; call Follow again to resume.
var ErrEventsLagged = errors.New("event stream fell behind")

// Follow streams daemon events to fn until ctx is cancelled, the daemon
// closes the stream, or fn returns an error. dialTimeout only bounds the
// connection attempt.
func (a *App) Follow(ctx context.Context, dialTimeout time.Duration, fn func(eventbus.Event) error) error {
	if dialTimeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	if !daemonIsRunning() {
		return notRunning()
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	client, conn, err := dialDaemonClient(dialCtx)
	cancel()
	switch {
	case errors.Is(err, daemon.ErrUnavailable):
		return fmt.Errorf("%w: %v", errDaemonNotRunning, err)
	case err != nil:
		return fmt.Errorf("connect to daemon: %w", err)
	}
	if conn != nil {
		defer conn.Close()
	}

	stream, err := client.Events(ctx, &emptypb.Empty{})
	if err != nil {
		return fmt.Errorf("daemon events RPC failed: %w", err)
	}
	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			if status.Code(err) == codes.ResourceExhausted {
				return fmt.Errorf("%w: %s", ErrEventsLagged, status.Convert(err).Message())
			}
			return fmt.Errorf("event stream: %w", err)
		}
		var ev eventbus.Event
		if err := weavev1.DecodeStruct(msg, &ev); err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
