package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"weavectl/internal/model"
	"weavectl/internal/scanner"
)

// Source is the OS process table.
type Source interface {
	// Snapshot lists every process currently visible to this user.
	Snapshot(ctx context.Context) ([]scanner.Entry, error)
	// Lookup refreshes a single process, including its resident memory.
	Lookup(ctx context.Context, pid uint32) (scanner.Entry, error)
	// Kill sends a termination signal to pid.
	Kill(ctx context.Context, pid uint32) error
	// TotalMemory is the host's physical memory in bytes.
	TotalMemory(ctx context.Context) (uint64, error)
}

// Registry owns the shared process snapshot. All scans, kills and memory
// queries serialize on its lock; there is one per daemon.
type Registry struct {
	mu      sync.Mutex
	src     Source
	opts    scanner.Options
	byPID   map[uint32]scanner.Entry
	records []model.ProcessRecord
	self    uint32
}

// New returns a registry with an empty snapshot. Call Refresh or Scan to
// populate it.
func New(src Source, opts scanner.Options) *Registry {
	return &Registry{
		src:   src,
		opts:  opts,
		byPID: make(map[uint32]scanner.Entry),
		self:  uint32(os.Getpid()),
	}
}

// Refresh re-reads the OS process table. Records returned earlier are not
// affected; they are copies. On failure the previous snapshot is kept.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Registry) refreshLocked(ctx context.Context) error {
	entries, err := r.src.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("refresh process table: %w", err)
	}
	byPID := make(map[uint32]scanner.Entry, len(entries))
	for _, e := range entries {
		byPID[e.PID] = e
	}
	r.byPID = byPID
	r.records = scanner.Scan(r.sortedLocked(), r.opts)
	return nil
}

// Scan refreshes and returns the game processes in pid order.
func (r *Registry) Scan(ctx context.Context) ([]model.ProcessRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refreshLocked(ctx); err != nil {
		return nil, err
	}
	return copyRecords(r.records), nil
}

// Records returns the result of the last scan without touching the OS.
func (r *Registry) Records() []model.ProcessRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyRecords(r.records)
}

// Kill signals pid if it is in the latest snapshot. A true result means the
// signal was dispatched, not that the process has exited.
func (r *Registry) Kill(ctx context.Context, pid uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPID[pid]; !ok {
		return false
	}
	return r.src.Kill(ctx, pid) == nil
}

// MemoryUsage returns this process's resident memory and the host total.
func (r *Registry) MemoryUsage(ctx context.Context) (used, total uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	self, err := r.src.Lookup(ctx, r.self)
	if err != nil {
		return 0, 0, fmt.Errorf("refresh own process: %w", err)
	}
	r.byPID[self.PID] = self

	total, err = r.src.TotalMemory(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("read system memory: %w", err)
	}
	return self.RSS, total, nil
}

func (r *Registry) sortedLocked() []scanner.Entry {
	entries := make([]scanner.Entry, 0, len(r.byPID))
	for _, e := range r.byPID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PID < entries[j].PID })
	return entries
}

func copyRecords(in []model.ProcessRecord) []model.ProcessRecord {
	out := make([]model.ProcessRecord, len(in))
	for i, rec := range in {
		rec.Info.Cmd = append([]string(nil), rec.Info.Cmd...)
		out[i] = rec
	}
	return out
}

// ErrNoProcess is returned by sources for pids that are not running.
var ErrNoProcess = errors.New("process not found")
