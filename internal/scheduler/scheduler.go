// Package scheduler runs periodic housekeeping jobs, such as writing the
// browser's session cookies back to disk.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Job is one unit of periodic work.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron *cron.Cron
	spec string // cron spec, e.g. "@every 10m"
	name string
	job  Job
}

func New(spec, name string, job Job) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		spec: spec,
		name: name,
		job:  job,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("⏰ [scheduler] %s scheduled: %s", s.name, s.spec)
	return nil
}

// Stop waits for a running job to finish, then runs it one last time.
func (s *Scheduler) Stop(ctx context.Context) {
	<-s.cron.Stop().Done()
	s.run(ctx)
	log.Printf("[scheduler] %s stopped", s.name)
}

func (s *Scheduler) run(ctx context.Context) {
	if err := s.job(ctx); err != nil {
		log.Printf("⚠️ [scheduler] %s failed: %v", s.name, err)
	}
}
