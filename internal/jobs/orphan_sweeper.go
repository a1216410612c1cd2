package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type orphanSweeper interface {
	SweepOrphans(ctx context.Context) (int, error)
}

// OrphanSweeper clears relations and notifications whose user is gone.
type OrphanSweeper struct {
	Users   orphanSweeper
	Timeout time.Duration
}

// NewOrphanSweeper creates a new instance of OrphanSweeper
func NewOrphanSweeper(users orphanSweeper, timeout time.Duration) *OrphanSweeper {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &OrphanSweeper{Users: users, Timeout: timeout}
}

// RunSweep runs one pass bounded by Timeout.
func (s *OrphanSweeper) RunSweep(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	swept, err := s.Users.SweepOrphans(ctx)
	if err != nil {
		return fmt.Errorf("orphan sweep failed after %d users: %w", swept, err)
	}

	logrus.WithFields(logrus.Fields{
		"users":    swept,
		"duration": time.Since(start).String(),
	}).Info("Orphan sweep finished")
	return nil
}
