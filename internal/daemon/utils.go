package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"google.golang.org/protobuf/types/known/emptypb"
)

// SocketBaseName is the UNIX socket filename
const SocketBaseName = "weave.sock"

const (
	pidFileName  = "weave.pid"
	lockFileName = "weave.lock"
)

// SocketPath returns the full path to the UNIX socket
// Order of precedence (first wins):
// 1) WEAVE_SOCKET (absolute path to socket)
// 2) WEAVE_RUNTIME_DIR
// 3) if runtime=linux: $XDG_RUNTIME_DIR or /run/user/<UID>
//    else (darwin, *bsd, etc): /tmp/weave-<UID>.sock
func SocketPath() string {
	if explicit := os.Getenv("WEAVE_SOCKET"); explicit != "" {
		return explicit
	}

	uid := currentUID()

	if rd := os.Getenv("WEAVE_RUNTIME_DIR"); rd != "" {
		return filepath.Join(rd, SocketBaseName)
	}

	if runtime.GOOS == "linux" {
		if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
			return filepath.Join(v, SocketBaseName)
		}
		return filepath.Join("/run/user", uid, SocketBaseName)
	}

	// keep it short to avoid the sun_path length limit
	return filepath.Join("/tmp", "weave-"+uid+".sock")
}

// EnsureRuntimeDir creates the directory holding the socket.
func EnsureRuntimeDir() error {
	return os.MkdirAll(filepath.Dir(SocketPath()), 0o700)
}

// PIDPath returns the full path to the PID file
func PIDPath() string {
	return filepath.Join(filepath.Dir(SocketPath()), pidFileName)
}

// LockPath returns the file guarding against a second daemon.
func LockPath() string {
	return filepath.Join(filepath.Dir(SocketPath()), lockFileName)
}

// WritePID stores the provided pid into the pid file
func WritePID(pid int) error {
	if err := EnsureRuntimeDir(); err != nil {
		return err
	}
	return os.WriteFile(PIDPath(), []byte(fmt.Sprintf("%d\n", pid)), 0o600)
}

// RemovePID removes the pid file if it exists
func RemovePID() error {
	if err := os.Remove(PIDPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RunningPID returns the pid stored in the pid file if any
func RunningPID() (int, error) {
	data, err := os.ReadFile(PIDPath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}

// Health describes what the runtime dir says about the daemon.
type Health struct {
	Socket string
	// PID comes from the pid file; zero when there is none.
	PID int
	// ProcessAlive reports whether PID names a live process.
	ProcessAlive bool
	// StaleRemoved is set when the pid file named a dead process and was
	// deleted.
	StaleRemoved bool
	// Responding is true when the daemon answered a ping on Socket.
	Responding bool
	// Launched counts clients the daemon started that are still running.
	Launched int
}

// Probe inspects the pid file and pings the socket. A pid file left behind
// by a daemon that died without cleanup is removed.
func Probe(ctx context.Context) Health {
	h := Health{Socket: SocketPath()}
	if pid, err := RunningPID(); err == nil {
		h.PID = pid
		alive, err := process.PidExistsWithContext(ctx, int32(pid))
		h.ProcessAlive = err == nil && alive
		if err == nil && !alive {
			h.StaleRemoved = RemovePID() == nil
		}
	}
	if _, err := os.Stat(h.Socket); err != nil {
		return h
	}

	ctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	client, conn, err := DialSocket(ctx, h.Socket)
	if err != nil {
		return h
	}
	defer conn.Close()

	if _, err := client.Ping(ctx, &emptypb.Empty{}); err != nil {
		return h
	}
	h.Responding = true
	if running, err := client.Running(ctx, &emptypb.Empty{}); err == nil {
		h.Launched = len(running.GetValues())
	}
	return h
}

// IsRunning reports whether a daemon answers on the socket.
func IsRunning() bool {
	return Probe(context.Background()).Responding
}

func currentUID() string {
	u, err := user.Current()
	if err == nil && u != nil && u.Uid != "" {
		return u.Uid
	}
	return "0"
}
