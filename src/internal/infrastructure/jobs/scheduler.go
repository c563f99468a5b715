// Package jobs runs periodic maintenance on a gocron scheduler.
package jobs

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Job is one periodic task.
type Job interface {
	Name() string
	Interval() time.Duration
	Execute()
}

// Scheduler owns the gocron scheduler and the registered jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	log       *zap.Logger
}

func NewScheduler(log *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, log: log}, nil
}

// Register adds job. A run still in progress when the next one is due
// pushes the next run back instead of overlapping.
func (s *Scheduler) Register(job Job) error {
	if job.Interval() <= 0 {
		s.log.Info("job disabled", zap.String("job", job.Name()))
		return nil
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(job.Interval()),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	s.log.Info("job registered", zap.String("job", job.Name()), zap.Duration("interval", job.Interval()))
	return nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) jobCount() int {
	return len(s.scheduler.Jobs())
}
