// Package stabilizer waits for newly created files to finish being written.
package stabilizer

import (
	"context"
	"os"
	"time"
)

// Poll waits until a file's size stays the same for Checks consecutive
// polls taken Interval apart. Checks <= 0 returns immediately.
type Poll struct {
	Interval time.Duration
	Checks   int
}

// New creates a polling stabilizer.
func New(interval time.Duration, checks int) *Poll {
	return &Poll{Interval: interval, Checks: checks}
}

// WaitForStable blocks until path is stable, ctx is done, or the file
// cannot be stat'ed.
func (s *Poll) WaitForStable(ctx context.Context, path string) error {
	var lastSize int64 = -1
	stableCount := 0

	for stableCount < s.Checks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Interval):
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if size := info.Size(); size == lastSize {
			stableCount++
		} else {
			stableCount = 0
			lastSize = size
		}
	}
	return nil
}
