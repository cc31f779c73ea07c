package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"google.golang.org/grpc"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/config"
	"weavectl/internal/eventbus"
	"weavectl/internal/paths"
	"weavectl/internal/registry"
)

const shutdownTimeout = 5 * time.Second

// ErrAlreadyRunning is returned when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("daemon is already running")

// Server owns the UNIX listener, the gRPC server and the background loops.
type Server struct {
	ln     net.Listener
	path   string
	lock   *flock.Flock
	grpc   *grpc.Server
	svc    *service
	cancel context.CancelFunc
	done   chan struct{}
	log    *logrus.Entry
}

// Close stops the server, kills launched clients and unlinks the socket.
func (s *Server) Close() error {
	s.cancel()
	s.grpc.Stop()
	<-s.done

	err := s.svc.launcher.Shutdown(shutdownTimeout)
	s.svc.bus.Close()
	if s.path != "" {
		if rerr := os.Remove(s.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = multierr.Append(err, rerr)
		}
	}
	err = multierr.Append(err, RemovePID())
	if s.lock != nil {
		err = multierr.Append(err, s.lock.Unlock())
	}
	return err
}

// StartDaemon takes the single-instance lock, binds the UNIX socket and
// serves weave.v1.Weave until Close.
func StartDaemon(cfg config.Config) (*Server, error) {
	log := logrus.NewEntry(cfg.Logger())
	if err := EnsureRuntimeDir(); err != nil {
		return nil, fmt.Errorf("create runtime dir: %w", err)
	}

	lock := flock.New(LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	path := SocketPath()
	// Holding the lock means any socket left behind is stale.
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		lock.Unlock()
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		lock.Unlock()
		return nil, err
	}

	layout, err := paths.New(afero.NewOsFs(), cfg.DataDir, cfg.LoaderFile)
	if err != nil {
		ln.Close()
		lock.Unlock()
		return nil, err
	}
	s, err := newServer(ln, cfg, serviceOptions{
		Source:     registry.SystemSource{},
		Layout:     layout,
		Bus:        eventbus.New(cfg.SubscriberBuffer).WithLogger(log),
		AutoSelect: cfg.AutoSelectLaunched,
		Log:        log,
	})
	if err != nil {
		ln.Close()
		lock.Unlock()
		return nil, err
	}
	s.path = path
	s.lock = lock

	if err := WritePID(os.Getpid()); err != nil {
		s.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{"socket": path, "data_dir": layout.DataDir}).Info("daemon listening")
	return s, nil
}

// newServer serves on ln. Tests pass a bufconn listener.
func newServer(ln net.Listener, cfg config.Config, opts serviceOptions) (*Server, error) {
	svc, err := newService(opts)
	if err != nil {
		return nil, err
	}
	gs := grpc.NewServer()
	weavev1.RegisterWeaveServer(gs, svc)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ln:     ln,
		grpc:   gs,
		svc:    svc,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    opts.Log.WithField("component", "server"),
	}
	go func() {
		if err := gs.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.log.WithError(err).Error("grpc server stopped")
		}
	}()
	go func() {
		defer close(s.done)
		svc.discover(ctx, cfg.ScanInterval)
	}()
	return s, nil
}

// StopRunningDaemon sends a termination signal to the currently running daemon if any.
func StopRunningDaemon(force bool) error {
	pid, err := RunningPID()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if IsRunning() {
				return fmt.Errorf("daemon is running but PID file %q is missing; stop it manually", PIDPath())
			}
			return nil
		}
		return fmt.Errorf("unable to read daemon PID: %w", err)
	}
	if pid == os.Getpid() {
		return errors.New("refusing to stop current process")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := sendSignal(proc, syscall.SIGTERM); err != nil {
		return err
	}
	if waitForShutdown(3 * time.Second) {
		return nil
	}
	if !force {
		return fmt.Errorf("daemon process %d did not exit after SIGTERM", pid)
	}
	if err := sendSignal(proc, syscall.SIGKILL); err != nil {
		return err
	}
	if waitForShutdown(2 * time.Second) {
		return nil
	}
	return fmt.Errorf("daemon process %d did not exit after SIGKILL", pid)
}

func sendSignal(proc *os.Process, sig syscall.Signal) error {
	if err := proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			_ = RemovePID()
			return nil
		}
		return err
	}
	return nil
}

func waitForShutdown(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !IsRunning() {
			_ = RemovePID()
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}
