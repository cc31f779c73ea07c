package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/eventbus"
)

func eventMessages(t *testing.T, events ...eventbus.Event) []proto.Message {
	t.Helper()
	out := make([]proto.Message, 0, len(events))
	for _, ev := range events {
		msg, err := weavev1.EncodeStruct(ev)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out = append(out, msg)
	}
	return out
}

func TestAppFollow(t *testing.T) {
	msgs := eventMessages(t,
		eventbus.Event{Type: eventbus.EventInstanceLaunched, PID: 5, LogPath: "/l/a.log"},
		eventbus.Event{Type: eventbus.EventConsoleLine, PID: 5, Line: "hello"},
		eventbus.Event{Type: eventbus.EventInstanceExited, PID: 5, ExitCode: 1},
	)
	conn := &fakeConn{
		newStream: func(ctx context.Context, method string) (grpc.ClientStream, error) {
			if method != weavev1.MethodEvents {
				t.Fatalf("unexpected method %s", method)
			}
			return &fakeStream{ctx: ctx, msgs: msgs}, nil
		},
	}
	stubConn(t, conn)

	var got []eventbus.Event
	app := New(Options{})
	err := app.Follow(context.Background(), time.Second, func(ev eventbus.Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Follow returned error: %v", err)
	}
	if len(got) != 3 || got[1].Line != "hello" || got[2].ExitCode != 1 {
		t.Fatalf("unexpected events %+v", got)
	}
	if !conn.closed {
		t.Fatal("connection was not closed")
	}
}

func TestAppFollowStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	stubConn(t, &fakeConn{
		newStream: func(ctx context.Context, method string) (grpc.ClientStream, error) {
			return &fakeStream{ctx: ctx, msgs: eventMessages(t,
				eventbus.Event{Type: eventbus.EventConsoleLine, Line: "a"},
				eventbus.Event{Type: eventbus.EventConsoleLine, Line: "b"},
			)}, nil
		},
	})

	calls := 0
	app := New(Options{})
	err := app.Follow(context.Background(), time.Second, func(eventbus.Event) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected stop after one event, got %v after %d", err, calls)
	}
}

func TestAppFollowStreamError(t *testing.T) {
	stubConn(t, &fakeConn{
		newStream: func(ctx context.Context, method string) (grpc.ClientStream, error) {
			return &fakeStream{ctx: ctx, end: errors.New("transport closing")}, nil
		},
	})

	app := New(Options{})
	err := app.Follow(context.Background(), time.Second, func(eventbus.Event) error { return nil })
	if err == nil || err.Error() != "event stream: transport closing" {
		t.Fatalf("expected stream error, got %v", err)
	}
}

func TestAppFollowLagged(t *testing.T) {
	stubConn(t, &fakeConn{
		newStream: func(ctx context.Context, method string) (grpc.ClientStream, error) {
			return &fakeStream{
				ctx:  ctx,
				msgs: eventMessages(t, eventbus.Event{Type: eventbus.EventConsoleLine, Line: "a"}),
				end:  status.Error(codes.ResourceExhausted, "missed events"),
			}, nil
		},
	})

	calls := 0
	app := New(Options{})
	err := app.Follow(context.Background(), time.Second, func(eventbus.Event) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrEventsLagged) {
		t.Fatalf("expected ErrEventsLagged, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the buffered event before the error, got %d", calls)
	}
}

func TestAppFollowNotRunning(t *testing.T) {
	stubDaemon(t, false, nil)
	app := New(Options{})
	if err := app.Follow(context.Background(), time.Second, nil); !IsNotRunning(err) {
		t.Fatalf("expected not running, got %v", err)
	}
}
