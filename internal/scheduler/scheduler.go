// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler triggers pipeline runs from an in-process cron
// schedule, for deployments without an external scheduler calling
// /run-daily.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"storyteller/internal/pipeline"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) pipeline.Result
}

// parser accepts five-field expressions and descriptors such as @daily.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler runs the pipeline on a cron schedule. Ticks that arrive while
// a run is still in progress are dropped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	runner Runner
	entry  cron.EntryID
	cancel context.CancelFunc
}

// New validates spec and prepares a scheduler in loc (nil means UTC).
func New(spec string, runner Runner, loc *time.Location) (*Scheduler, error) {
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	logger := cron.VerbosePrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{cron: c, spec: spec, runner: runner}, nil
}

// Start registers the job and starts the cron loop. Runs use a context
// derived from ctx that Stop cancels.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	id, err := s.cron.AddFunc(s.spec, func() {
		res := s.runner.Run(ctx)
		slog.Info("scheduled run finished", "status", res.Status, "run_id", res.RunID, "message", res.Message)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("scheduler: add job: %w", err)
	}

	s.entry = id
	s.cancel = cancel
	s.cron.Start()

	slog.Info("scheduler started", "schedule", s.spec, "next", s.Next())
	return nil
}

// Next returns the next scheduled trigger, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Stop halts the schedule, cancels an in-flight run and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}

	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}
