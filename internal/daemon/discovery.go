package daemon

import (
	"context"
	"time"
)

// discover rescans every interval so subscribers hear about clients started
// outside the daemon. A zero interval disables it.
func (s *service) discover(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.scan(ctx); err != nil {
				s.log.WithError(err).Warn("background scan failed")
			}
		}
	}
}
