/**
 * @description
 * Cron scheduler setup for the joke dispatch jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/secsys/security-service/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config *config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg *config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.JokeEmailSchedule, s.jobs.SendJokeEmails); err != nil {
		s.logger.Error("failed to schedule joke email job", "error", err)
	} else {
		s.logger.Info("scheduled joke email job", "schedule", s.config.JokeEmailSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.JokeSMSSchedule, s.jobs.SendJokeSMS); err != nil {
		s.logger.Error("failed to schedule joke SMS job", "error", err)
	} else {
		s.logger.Info("scheduled joke SMS job", "schedule", s.config.JokeSMSSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
