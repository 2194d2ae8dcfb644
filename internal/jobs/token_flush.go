package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TokenFlusher removes blacklist entries for expired refresh tokens.
type TokenFlusher interface {
	FlushExpiredTokens(ctx context.Context) (int64, error)
}

// FlushJob is the cron job that purges expired blacklisted tokens.
type FlushJob struct {
	flusher TokenFlusher
	log     *logrus.Logger
	timeout time.Duration
}

func NewFlushJob(flusher TokenFlusher, log *logrus.Logger) *FlushJob {
	return &FlushJob{flusher: flusher, log: log, timeout: 30 * time.Second}
}

// Run implements cron.Job.
func (j *FlushJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.flusher.FlushExpiredTokens(ctx)
	if err != nil {
		j.log.WithError(err).Error("Failed to flush expired tokens")
		return
	}
	if n > 0 {
		j.log.WithField("removed", n).Info("Flushed expired blacklisted tokens")
	}
}

// NewScheduler returns a cron scheduler running job on spec. The caller
// starts and stops it.
func NewScheduler(spec string, job cron.Job, log *logrus.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(log)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(log)), cron.SkipIfStillRunning(cron.PrintfLogger(log))),
	)
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return c, nil
}
