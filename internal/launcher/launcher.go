// Package launcher starts game clients with the Weave loader attached and
// hands their output to a console stream.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"weavectl/internal/console"
	"weavectl/internal/eventbus"
	"weavectl/internal/model"
	"weavectl/internal/paths"
)

const logNameLayout = "2006-01-02-150405"

// Every log4j system property is dropped; the loader configures logging
// itself. Matches -Dlog4j2.* as well.
const loggingPropertyPrefix = "-Dlog4j"

var (
	ErrEmptyCommand = errors.New("launch command is empty")
	// ErrLoaderNotInstalled aliases the paths error so callers can match on
	// either package.
	ErrLoaderNotInstalled = paths.ErrLoaderNotInstalled
)

// SpawnError wraps a failure to start the client process.
type SpawnError struct {
	Path string
	Dir  string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s in %s: %v", e.Path, e.Dir, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Augment removes log4j properties and inserts the agent flag
// right after the executable.
func Augment(cmd []string, loaderPath string) ([]string, error) {
	if len(cmd) == 0 {
		return nil, ErrEmptyCommand
	}
	out := make([]string, 0, len(cmd)+1)
	out = append(out, cmd[0], "-javaagent:"+loaderPath)
	for _, arg := range cmd[1:] {
		if strings.HasPrefix(arg, loggingPropertyPrefix) {
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

// Instance is a launched client. Its output is owned by a stream goroutine.
type Instance struct {
	PID       uint32           `json:"pid"`
	Client    model.ClientKind `json:"client"`
	LogPath   string           `json:"log_path"`
	StartedAt time.Time        `json:"started_at"`

	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
}

// Done is closed once the output stream ended and the process was reaped.
func (i *Instance) Done() <-chan struct{} { return i.done }

// ExitCode is valid after Done is closed; -1 means killed by a signal.
func (i *Instance) ExitCode() int {
	<-i.done
	return i.exitCode
}

// Launcher spawns clients and tracks the ones still running.
type Launcher struct {
	layout     paths.Layout
	selection  *console.Selection
	publisher  eventbus.Publisher
	autoSelect bool
	log        *logrus.Entry
	now        func() time.Time

	mu      sync.Mutex
	running map[uint32]*Instance
}

// Options configure a Launcher.
type Options struct {
	Layout    paths.Layout
	Selection *console.Selection
	Publisher eventbus.Publisher
	// AutoSelect focuses every newly launched instance.
	AutoSelect bool
	Log        *logrus.Entry
}

func New(opts Options) *Launcher {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	selection := opts.Selection
	if selection == nil {
		selection = &console.Selection{}
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = eventbus.New(1)
	}
	return &Launcher{
		layout:     opts.Layout,
		selection:  selection,
		publisher:  publisher,
		autoSelect: opts.AutoSelect,
		log:        log.WithField("component", "launcher"),
		now:        time.Now,
		running:    make(map[uint32]*Instance),
	}
}

// Launch starts the client described by req with the loader agent injected.
// Nothing is spawned when the loader is missing.
func (l *Launcher) Launch(req model.LaunchRequest) (*Instance, error) {
	info := req.ClientInfo
	if len(info.Cmd) == 0 {
		return nil, ErrEmptyCommand
	}
	loaderPath, err := l.layout.LoaderPath()
	if err != nil {
		return nil, err
	}
	if req.ModProfile != nil {
		mods, err := req.ModProfile.ResolveMods(l.layout.ModsDir())
		if err != nil {
			return nil, fmt.Errorf("mod profile %q: %w", req.ModProfile.Name, err)
		}
		l.log.WithFields(logrus.Fields{"profile": req.ModProfile.Name, "mods": len(mods)}).Debug("using mod profile")
	}
	args, err := Augment(info.Cmd, loaderPath)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	logPath, err := l.nextLogPath()
	if err != nil {
		return nil, err
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = info.Cwd
	cmd.Stdout = pw
	cmd.Stderr = pw
	startErr := cmd.Start()
	// The child holds its own copy of the write end; ours must go so the
	// reader sees EOF when the child exits.
	pw.Close()
	if startErr != nil {
		pr.Close()
		return nil, &SpawnError{Path: args[0], Dir: info.Cwd, Err: startErr}
	}

	pid := uint32(cmd.Process.Pid)
	if l.autoSelect {
		l.selection.Set(pid)
	}
	inst := &Instance{
		PID:       pid,
		Client:    info.Client,
		LogPath:   logPath,
		StartedAt: l.now(),
		cmd:       cmd,
		done:      make(chan struct{}),
	}
	l.running[pid] = inst

	log := l.log.WithFields(logrus.Fields{"pid": pid, "client": info.Client.String(), "log": logPath})
	stream := &console.Stream{
		PID:       pid,
		Client:    info.Client,
		LogPath:   logPath,
		Source:    pr,
		Fs:        l.layout.Fs,
		Selection: l.selection,
		Publisher: l.publisher,
		Log:       log,
	}
	go l.supervise(inst, stream, log)

	log.Info("launched client")
	return inst, nil
}

func (l *Launcher) supervise(inst *Instance, stream *console.Stream, log *logrus.Entry) {
	if err := stream.Run(); err != nil {
		log.WithError(err).Error("console stream stopped")
	}
	waitErr := inst.cmd.Wait()
	inst.exitCode = inst.cmd.ProcessState.ExitCode()

	l.mu.Lock()
	delete(l.running, inst.PID)
	l.mu.Unlock()

	if waitErr != nil {
		log.WithError(waitErr).WithField("exit_code", inst.exitCode).Info("client exited")
	} else {
		log.Info("client exited")
	}
	l.publisher.Publish(eventbus.Event{
		Type:     eventbus.EventInstanceExited,
		PID:      inst.PID,
		LogPath:  inst.LogPath,
		Client:   inst.Client,
		ExitCode: inst.exitCode,
	})
	close(inst.done)
}

// nextLogPath names the log after the launch second, adding a counter when
// two launches share a second. Callers hold l.mu.
func (l *Launcher) nextLogPath() (string, error) {
	dir, err := l.layout.ClientLogsDir()
	if err != nil {
		return "", err
	}
	base := l.now().Format(logNameLayout)
	p := filepath.Join(dir, base+".log")
	for n := 2; ; n++ {
		exists, err := afero.Exists(l.layout.Fs, p)
		if err != nil {
			return "", fmt.Errorf("check log file: %w", err)
		}
		if !exists && !l.claimedLocked(p) {
			return p, nil
		}
		p = filepath.Join(dir, fmt.Sprintf("%s-%d.log", base, n))
	}
}

// claimedLocked covers the window before a stream has created its file.
func (l *Launcher) claimedLocked(p string) bool {
	for _, inst := range l.running {
		if inst.LogPath == p {
			return true
		}
	}
	return false
}

// Instances lists launched clients that have not exited, oldest first.
func (l *Launcher) Instances() []Instance {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Instance, 0, len(l.running))
	for _, inst := range l.running {
		out = append(out, Instance{PID: inst.PID, Client: inst.Client, LogPath: inst.LogPath, StartedAt: inst.StartedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Kill terminates a client this launcher started. It reports false when pid
// is not one of its running instances or the signal could not be sent.
func (l *Launcher) Kill(pid uint32) bool {
	l.mu.Lock()
	inst, ok := l.running[pid]
	l.mu.Unlock()
	if !ok {
		return false
	}
	if err := inst.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		l.log.WithError(err).WithField("pid", pid).Warn("kill launched client")
		return false
	}
	return true
}

// Shutdown kills every running instance and waits up to timeout for their
// streams to drain.
func (l *Launcher) Shutdown(timeout time.Duration) error {
	l.mu.Lock()
	insts := make([]*Instance, 0, len(l.running))
	for _, inst := range l.running {
		insts = append(insts, inst)
	}
	l.mu.Unlock()

	var err error
	for _, inst := range insts {
		if kerr := inst.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = multierr.Append(err, fmt.Errorf("kill pid %d: %w", inst.PID, kerr))
		}
	}
	deadline := time.After(timeout)
	for _, inst := range insts {
		select {
		case <-inst.done:
		case <-deadline:
			return multierr.Append(err, errors.New("timed out waiting for clients to exit"))
		}
	}
	return err
}
