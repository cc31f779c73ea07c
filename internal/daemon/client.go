package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	weavev1 "weavectl/api/weave/v1"
)

// ErrUnavailable means nothing accepted a connection on the daemon socket.
var ErrUnavailable = errors.New("weave daemon unavailable")

// Scan replies carry full command lines.
const maxRecvMessageSize = 16 << 20

// Dial connects to the daemon on the configured socket.
func Dial(ctx context.Context) (weavev1.WeaveClient, *grpc.ClientConn, error) {
	return DialSocket(ctx, SocketPath())
}

// DialSocket connects to the daemon listening on path and blocks until the
// connection is ready or ctx ends.
func DialSocket(ctx context.Context, path string) (weavev1.WeaveClient, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient("passthrough:///weave",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvMessageSize)),
	)
	if err != nil {
		return nil, nil, err
	}
	conn.Connect()
	if err := awaitReady(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w at %s: %v", ErrUnavailable, path, err)
	}
	return weavev1.NewWeaveClient(conn), conn, nil
}

// awaitReady treats TransientFailure as final; callers that want to wait for
// a starting daemon retry the whole dial.
func awaitReady(ctx context.Context, conn *grpc.ClientConn) error {
	for state := conn.GetState(); state != connectivity.Ready; state = conn.GetState() {
		switch state {
		case connectivity.Shutdown:
			return errors.New("connection shut down")
		case connectivity.TransientFailure:
			return errors.New("connection refused")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return ctx.Err()
		}
	}
	return nil
}
