// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"storyteller/internal/ai"
	"storyteller/internal/cache"
	"storyteller/internal/config"
	"storyteller/internal/guard"
	"storyteller/internal/metrics"
	"storyteller/internal/pipeline"
	"storyteller/internal/story"
	"storyteller/internal/wordpress"
)

// app holds the wired components shared by both commands.
type app struct {
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	valkey   *redis.Client
}

// newApp wires the pipeline from cfg. A Valkey that cannot be reached only
// disables the run lock.
func newApp(ctx context.Context, cfg *config.Config, forceRun bool) *app {
	a := &app{metrics: metrics.New()}

	registry := ai.NewRegistry(cfg.AIProvider, cfg.AIImageProvider, cfg.AIProviders())
	if !registry.HasProvider(cfg.AIProvider) {
		slog.Warn("text provider has no API key; runs will fail", "provider", cfg.AIProvider)
	}
	if !registry.SupportsImageGeneration() {
		slog.Warn("image provider unavailable; runs will fail", "provider", cfg.AIImageProvider)
	}
	slog.Info("ai providers",
		"available", registry.Available(),
		"text", registry.ActiveName(),
		"image", registry.ActiveImageName(),
	)

	cms := wordpress.New(wordpress.Config{
		BaseURL:     cfg.WPURL,
		Username:    cfg.WPUser,
		AppPassword: cfg.WPAppPassword,
		Timeout:     cfg.WPTimeout,
	})

	guardCfg := guard.Config{
		Option:   cfg.LastRunOption,
		Window:   cfg.GuardWindow,
		Disabled: cfg.GuardDisabled || forceRun,
	}
	if cfg.LockEnabled() {
		client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("valkey unavailable, running without run lock", "error", err)
		} else {
			a.valkey = client
			guardCfg.Lock = cache.NewRunLock(client, cache.DefaultLockKey, cfg.LockTTL)
		}
	}

	a.pipeline = pipeline.New(pipeline.Config{
		Gate:       guard.New(cms, guardCfg),
		Writer:     story.NewGenerator(registry),
		Painter:    story.NewIllustrator(registry, cfg.ImageSize),
		Publisher:  cms,
		Categories: cfg.Categories,
		Metrics:    a.metrics,
		Timeout:    cfg.RunTimeout,
	})
	return a
}

func (a *app) Close() {
	if a.valkey != nil {
		a.valkey.Close()
	}
}
