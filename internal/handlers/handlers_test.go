// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyteller/internal/pipeline"
)

type stubRunner struct {
	result pipeline.Result
	calls  int
	ctxErr error
}

func (s *stubRunner) Run(ctx context.Context) pipeline.Result {
	s.calls++
	s.ctxErr = ctx.Err()
	return s.result
}

func TestRunDaily_ClientGoneDoesNotCancelRun(t *testing.T) {
	runner := &stubRunner{result: pipeline.Result{Status: pipeline.StatusOK}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/run-daily", nil).WithContext(ctx)

	NewStory(runner).RunDaily(httptest.NewRecorder(), req)

	if runner.ctxErr != nil {
		t.Errorf("run context: got %v, want live", runner.ctxErr)
	}
}

func TestRunDaily(t *testing.T) {
	tests := []struct {
		name   string
		result pipeline.Result
	}{
		{"ok", pipeline.Result{Status: pipeline.StatusOK, PostID: 99, Link: "https://example/?p=99"}},
		{"skipped", pipeline.Result{Status: pipeline.StatusSkipped, Message: "Skipped: last run 2h ago"}},
		{"error", pipeline.Result{Status: pipeline.StatusError, Message: "wordpress upload media: status 500: oops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{result: tt.result}
			h := NewStory(runner)

			rr := httptest.NewRecorder()
			h.RunDaily(rr, httptest.NewRequest(http.MethodGet, "/run-daily", nil))

			if rr.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200 for every outcome", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %q", ct)
			}

			var got pipeline.Result
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.result {
				t.Errorf("body: got %+v, want %+v", got, tt.result)
			}
			if runner.calls != 1 {
				t.Errorf("runner called %d times", runner.calls)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	rr := httptest.NewRecorder()
	NewStory(&stubRunner{}).Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d", rr.Code)
	}
	if rr.Body.String() != "AI daily story service kører." {
		t.Errorf("body: got %q", rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}
