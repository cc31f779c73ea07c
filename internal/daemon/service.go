package daemon

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/analytics"
	"weavectl/internal/console"
	"weavectl/internal/digest"
	"weavectl/internal/eventbus"
	"weavectl/internal/launcher"
	"weavectl/internal/model"
	"weavectl/internal/modconfig"
	"weavectl/internal/paths"
	"weavectl/internal/registry"
	"weavectl/internal/scanner"
)

const modConfigCacheSize = 128

// service implements weave.v1.Weave on top of the registry and launcher.
type service struct {
	reg       *registry.Registry
	launcher  *launcher.Launcher
	selection *console.Selection
	bus       *eventbus.Bus
	mods      *modconfig.Cache
	layout    paths.Layout
	log       *logrus.Entry

	mu   sync.Mutex
	seen map[uint32]struct{}
}

type serviceOptions struct {
	Source     registry.Source
	Layout     paths.Layout
	Bus        *eventbus.Bus
	AutoSelect bool
	Log        *logrus.Entry
}

func newService(opts serviceOptions) (*service, error) {
	mods, err := modconfig.NewCache(opts.Layout.Fs, modConfigCacheSize)
	if err != nil {
		return nil, err
	}
	sel := &console.Selection{}
	return &service{
		reg:       registry.New(opts.Source, scanner.Options{LoaderFile: opts.Layout.LoaderFile}),
		selection: sel,
		launcher: launcher.New(launcher.Options{
			Layout:     opts.Layout,
			Selection:  sel,
			Publisher:  opts.Bus,
			AutoSelect: opts.AutoSelect,
			Log:        opts.Log,
		}),
		bus:    opts.Bus,
		mods:   mods,
		layout: opts.Layout,
		log:    opts.Log.WithField("component", "service"),
		seen:   make(map[uint32]struct{}),
	}, nil
}

func (s *service) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("pong"), nil
}

func (s *service) Scan(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	records, err := s.scan(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "scan failed: %v", err)
	}
	return encodeList(records)
}

// scan refreshes the registry and announces pids absent from the previous
// scan.
func (s *service) scan(ctx context.Context) ([]model.ProcessRecord, error) {
	records, err := s.reg.Scan(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	next := make(map[uint32]struct{}, len(records))
	var fresh []model.ProcessRecord
	for _, rec := range records {
		next[rec.PID] = struct{}{}
		if _, ok := s.seen[rec.PID]; !ok {
			fresh = append(fresh, rec)
		}
	}
	s.seen = next
	s.mu.Unlock()

	for i := range fresh {
		rec := fresh[i]
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.EventProcessDiscovered,
			PID:     rec.PID,
			Client:  rec.Info.Client,
			Process: &rec,
		})
	}
	return records, nil
}

func (s *service) Launch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var lr model.LaunchRequest
	if err := weavev1.DecodeStruct(req, &lr); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	inst, err := s.launcher.Launch(lr)
	if err != nil {
		return nil, launchStatus(err)
	}
	return encodeStruct(inst)
}

func launchStatus(err error) error {
	var spawnErr *launcher.SpawnError
	switch {
	case errors.Is(err, launcher.ErrLoaderNotInstalled):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, launcher.ErrEmptyCommand), errors.Is(err, model.ErrInvalidModFile):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &spawnErr):
		return status.Errorf(codes.FailedPrecondition, "launch failed: %v", err)
	default:
		return status.Errorf(codes.Internal, "launch failed: %v", err)
	}
}

func (s *service) Running(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	return encodeList(s.launcher.Instances())
}

// Focus points the console at pid; 0 clears the selection.
func (s *service) Focus(ctx context.Context, req *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	s.selection.Set(req.GetValue())
	s.log.WithField("pid", req.GetValue()).Debug("focus changed")
	return &emptypb.Empty{}, nil
}

func (s *service) Kill(ctx context.Context, req *wrapperspb.UInt32Value) (*wrapperspb.BoolValue, error) {
	pid := req.GetValue()
	if pid == 0 {
		return nil, status.Error(codes.InvalidArgument, "pid must be positive")
	}
	ok := s.reg.Kill(ctx, pid)
	if !ok {
		// Clients launched since the last scan are not in the snapshot yet.
		ok = s.launcher.Kill(pid)
	}
	s.log.WithFields(logrus.Fields{"pid": pid, "dispatched": ok}).Info("kill requested")
	return wrapperspb.Bool(ok), nil
}

func (s *service) Memory(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	used, total, err := s.reg.MemoryUsage(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "memory usage: %v", err)
	}
	return encodeStruct(MemoryReport{Used: used, Total: total})
}

// MemoryReport is the payload of the Memory call.
type MemoryReport struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

func (s *service) ReadModConfig(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	path := strings.TrimSpace(req.GetValue())
	if path == "" {
		return nil, status.Error(codes.InvalidArgument, "path is required")
	}
	cfg, err := s.mods.Read(path)
	if err != nil {
		var decodeErr *modconfig.DecodeError
		switch {
		case errors.As(err, &decodeErr):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, fs.ErrNotExist):
			return nil, status.Error(codes.NotFound, err.Error())
		default:
			return nil, status.Error(codes.Internal, err.Error())
		}
	}
	return encodeStruct(cfg)
}

func (s *service) VerifyLoader(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	loader, err := s.layout.LoaderPath()
	if err != nil {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	ok, err := digest.VerifyFile(s.layout.Fs, loader, req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "hash loader: %v", err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *service) Analytics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	data, err := analytics.Load(s.layout.Fs, s.layout.AnalyticsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "analytics: %v", err)
	}
	return encodeStruct(data)
}

func (s *service) Events(_ *emptypb.Empty, stream weavev1.Weave_EventsServer) error {
	sub := s.bus.Subscribe()
	defer sub.Unsubscribe()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				if sub.Lagged() {
					return status.Error(codes.ResourceExhausted, "event stream fell behind and missed events; resubscribe")
				}
				return nil
			}
			msg, err := weavev1.EncodeStruct(ev)
			if err != nil {
				s.log.WithError(err).Warn("drop event")
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func encodeStruct(v any) (*structpb.Struct, error) {
	out, err := weavev1.EncodeStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func encodeList(v any) (*structpb.ListValue, error) {
	out, err := weavev1.EncodeList(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
