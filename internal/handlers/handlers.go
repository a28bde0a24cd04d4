// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP endpoints of the storyteller service.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"storyteller/internal/pipeline"
)

// ReadyText is the plaintext body of the index endpoint.
const ReadyText = "AI daily story service kører."

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) pipeline.Result
}

// Story serves the run trigger and the readiness page.
type Story struct {
	runner Runner
}

// NewStory creates the story handlers.
func NewStory(runner Runner) *Story {
	return &Story{runner: runner}
}

// RunDaily runs the pipeline synchronously and writes its result. The HTTP
// status is 200 for every outcome; callers read the "status" field. A client
// that disconnects does not abort the run.
func (s *Story) RunDaily(w http.ResponseWriter, r *http.Request) {
	res := s.runner.Run(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, res)
}

// Index answers with a static readiness string.
func (s *Story) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ReadyText))
}

// Health returns a JSON liveness response.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response", "error", err)
	}
}
