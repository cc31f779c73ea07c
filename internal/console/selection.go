package console

import "sync/atomic"

// Selection holds the pid whose console output is forwarded live. Zero means
// nothing is selected.
//
// Reads and writes are lock-free. A reader may see a value one update behind,
// so a line racing a focus switch can land on either side of it.
type Selection struct {
	pid atomic.Uint32
}

func (s *Selection) Set(pid uint32) { s.pid.Store(pid) }

func (s *Selection) Load() uint32 { return s.pid.Load() }

func (s *Selection) Clear() { s.pid.Store(0) }

// Selected reports whether pid is the focused process.
func (s *Selection) Selected(pid uint32) bool {
	return pid != 0 && s.pid.Load() == pid
}
