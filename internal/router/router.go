// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router wires the HTTP routes and middleware of the service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storyteller/internal/handlers"
	"storyteller/internal/middleware"
)

// New creates the Chi router. metrics may be nil, in which case /metrics
// is not mounted. limiter guards only the trigger endpoint.
func New(story *handlers.Story, metrics http.Handler, limiter *middleware.TriggerLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", handlers.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIHeaders)
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		r.Get("/run-daily", story.RunDaily)
	})

	r.Get("/", story.Index)

	return r
}
