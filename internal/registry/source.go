package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"weavectl/internal/scanner"
)

// SystemSource reads the live process table through gopsutil.
type SystemSource struct{}

func (SystemSource) Snapshot(ctx context.Context) ([]scanner.Entry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]scanner.Entry, 0, len(procs))
	for _, p := range procs {
		// Processes can exit or deny access mid-scan; keep what is readable.
		entries = append(entries, describe(ctx, p, false))
	}
	return entries, nil
}

func (SystemSource) Lookup(ctx context.Context, pid uint32) (scanner.Entry, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return scanner.Entry{}, fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
		}
		return scanner.Entry{}, err
	}
	return describe(ctx, p, true), nil
}

func (SystemSource) Kill(ctx context.Context, pid uint32) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return err
	}
	return p.KillWithContext(ctx)
}

func (SystemSource) TotalMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

func describe(ctx context.Context, p *process.Process, withMemory bool) scanner.Entry {
	e := scanner.Entry{PID: uint32(p.Pid)}
	if exe, err := p.ExeWithContext(ctx); err == nil {
		e.Exe = exe
	}
	if args, err := p.CmdlineSliceWithContext(ctx); err == nil {
		e.Cmdline = args
	}
	if cwd, err := p.CwdWithContext(ctx); err == nil {
		e.Cwd = cwd
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
		e.StartTime = uint64(ms / 1000)
	}
	if withMemory {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			e.RSS = mi.RSS
		}
	}
	return e
}
