// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"storyteller/internal/handlers"
	"storyteller/internal/middleware"
	"storyteller/internal/router"
	"storyteller/internal/scheduler"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve /run-daily and run the optional schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a := newApp(ctx, cfg, false)
	defer a.Close()

	var sched *scheduler.Scheduler
	if cfg.RunSchedule != "" {
		sched, err = scheduler.New(cfg.RunSchedule, a.pipeline, cfg.RunTimezone)
		if err != nil {
			slog.Error("invalid run schedule", "error", err)
			return err
		}
		if err := sched.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}

	limiter := middleware.NewTriggerLimiter(cfg.RunRateLimit, time.Minute)
	r := router.New(handlers.NewStory(a.pipeline), a.metrics.Handler(), limiter)

	// WriteTimeout has to outlast a full pipeline run.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RunTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed to start", "error", err)
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give an in-flight run time to finish writing its post.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			slog.Warn("scheduler did not stop cleanly", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}
