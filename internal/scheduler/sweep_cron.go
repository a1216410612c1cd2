package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type sweepJob interface {
	RunSweep(ctx context.Context) error
}

// StartSweepCron runs job on schedule (standard cron syntax or a descriptor
// such as @daily). The caller stops the returned cron on shutdown.
func StartSweepCron(schedule string, job sweepJob) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		if err := job.RunSweep(context.Background()); err != nil {
			logrus.WithError(err).Error("Orphan sweep failed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logrus.WithField("schedule", schedule).Info("Orphan sweep scheduled")
	return c, nil
}
