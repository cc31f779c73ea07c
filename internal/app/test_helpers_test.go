package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"

	weavev1 "weavectl/api/weave/v1"
)

type fakeConn struct {
	invoke    func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error
	newStream func(ctx context.Context, method string) (grpc.ClientStream, error)
	closed    bool
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
	if f.invoke != nil {
		return f.invoke(ctx, method, args, reply, opts...)
	}
	return nil
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	if f.newStream != nil {
		return f.newStream(ctx, method)
	}
	return nil, errors.New("not implemented")
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

// fakeStream replays msgs and then returns end.
type fakeStream struct {
	ctx  context.Context
	msgs []proto.Message
	end  error
}

func (s *fakeStream) Header() (metadata.MD, error) { return nil, nil }
func (s *fakeStream) Trailer() metadata.MD         { return nil }
func (s *fakeStream) CloseSend() error             { return nil }
func (s *fakeStream) Context() context.Context     { return s.ctx }
func (s *fakeStream) SendMsg(m any) error          { return nil }

func (s *fakeStream) RecvMsg(m any) error {
	if len(s.msgs) == 0 {
		if s.end == nil {
			return io.EOF
		}
		return s.end
	}
	next := s.msgs[0]
	s.msgs = s.msgs[1:]
	proto.Merge(m.(proto.Message), next)
	return nil
}

// reply copies msg into a unary call's reply.
func reply(t *testing.T, out interface{}, msg proto.Message) {
	t.Helper()
	dst, ok := out.(proto.Message)
	if !ok {
		t.Fatalf("unexpected reply type %T", out)
	}
	proto.Merge(dst, msg)
}

func stubDaemon(t *testing.T, running bool, dial func(context.Context) (weavev1.WeaveClient, io.Closer, error)) {
	t.Helper()
	resetDaemonDeps()
	daemonIsRunning = func() bool { return running }
	if dial == nil {
		dial = func(context.Context) (weavev1.WeaveClient, io.Closer, error) {
			return nil, nil, errors.New("dial not stubbed")
		}
	}
	dialDaemonClient = dial
	t.Cleanup(resetDaemonDeps)
}

func stubConn(t *testing.T, conn *fakeConn) {
	t.Helper()
	stubDaemon(t, true, func(context.Context) (weavev1.WeaveClient, io.Closer, error) {
		return weavev1.NewWeaveClient(conn), conn, nil
	})
}
