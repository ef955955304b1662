// Package scheduler runs the periodic settlement job that closes fully paid credits.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/config"
)

// Settler marks fully paid credits as completed.
type Settler interface {
	CompleteSettledCredits(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	settler Settler
	timeout time.Duration
	log     logrus.FieldLogger
}

// New registers the settlement job on spec. A run is skipped while the previous one is still going.
func New(settler Settler, spec string, loc *time.Location, timeout time.Duration, log logrus.FieldLogger) (*Scheduler, error) {
	cronLog := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	s := &Scheduler{cron: c, settler: settler, timeout: timeout, log: log}
	if _, err := c.AddFunc(spec, s.RunSettlement); err != nil {
		return nil, err
	}
	return s, nil
}

// RunSettlement executes one settlement pass.
func (s *Scheduler) RunSettlement() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	completed, err := s.settler.CompleteSettledCredits(ctx)
	if err != nil {
		s.log.WithError(err).Error("settlement job failed")
		return
	}

	s.log.WithFields(logrus.Fields{
		"completed": completed,
		"duration":  time.Since(start).String(),
	}).Info("settlement job finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next reports when the settlement job fires next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
