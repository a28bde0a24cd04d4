// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package guard limits publication to one post per rolling window. The time
// of the last successful run lives in a CMS setting, so every instance that
// points at the same site shares the same clock.
//
// Reading the marker and writing it back are separate steps. Two triggers
// arriving together can both see an old marker and both publish. When a
// Lock is configured it is taken around the whole run to close that gap
// within one deployment.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storyteller/internal/wordpress"
)

// DefaultWindow is the minimum time between two publications.
const DefaultWindow = 24 * time.Hour

// DefaultOption is the CMS setting holding the last-run timestamp.
const DefaultOption = "storyteller_last_run"

// State is the outcome of a guard check.
type State int

const (
	Eligible State = iota
	Throttled
)

func (s State) String() string {
	switch s {
	case Eligible:
		return "eligible"
	case Throttled:
		return "throttled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision describes why a run may or may not proceed.
type Decision struct {
	State     State
	LastRun   time.Time     // zero when no usable marker was found
	Remaining time.Duration // time until the window reopens, when throttled
	Reason    string
}

// MarkerStore reads and writes the shared timestamp.
type MarkerStore interface {
	GetSetting(ctx context.Context, name string) (string, error)
	SetSetting(ctx context.Context, name, value string) error
}

// Lock is an optional mutual-exclusion primitive shared by all instances.
type Lock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// ReadError wraps a failure to read the marker. It never stops a run.
type ReadError struct {
	Option string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("guard: read %s: %v", e.Option, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Config tunes a Guard. Zero values select the defaults.
type Config struct {
	Option   string
	Window   time.Duration
	Disabled bool             // always eligible, e.g. for manual runs
	Lock     Lock             // nil disables locking
	Now      func() time.Time // nil means time.Now
}

// Guard gates pipeline runs.
type Guard struct {
	store    MarkerStore
	option   string
	window   time.Duration
	disabled bool
	lock     Lock
	now      func() time.Time
}

// New creates a Guard reading and writing through store.
func New(store MarkerStore, cfg Config) *Guard {
	g := &Guard{
		store:    store,
		option:   cfg.Option,
		window:   cfg.Window,
		disabled: cfg.Disabled,
		lock:     cfg.Lock,
		now:      cfg.Now,
	}
	if g.option == "" {
		g.option = DefaultOption
	}
	if g.window <= 0 {
		g.window = DefaultWindow
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Begin decides whether a run may proceed. The returned release func must
// be called when the run is over; it frees the lock if one was taken and is
// a no-op otherwise.
func (g *Guard) Begin(ctx context.Context) (Decision, func()) {
	noop := func() {}

	if g.disabled {
		return Decision{State: Eligible, Reason: "guard disabled"}, noop
	}

	release := noop
	if g.lock != nil {
		ok, err := g.lock.TryAcquire(ctx)
		switch {
		case err != nil:
			slog.Warn("run lock unavailable, continuing without it", "error", err)
		case !ok:
			return Decision{State: Throttled, Reason: "another run is in progress"}, noop
		default:
			release = func() {
				// The run context may already be cancelled.
				ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				if err := g.lock.Release(ctx); err != nil {
					slog.Warn("run lock release failed", "error", err)
				}
			}
		}
	}

	d := g.Check(ctx)
	if d.State == Throttled {
		release()
		return d, noop
	}
	return d, release
}

// Check compares the stored marker against the window. Any problem reading
// the marker leaves the run eligible.
func (g *Guard) Check(ctx context.Context) Decision {
	raw, err := g.store.GetSetting(ctx, g.option)
	if err != nil {
		if errors.Is(err, wordpress.ErrSettingNotFound) {
			return Decision{State: Eligible, Reason: "no previous run recorded"}
		}
		slog.Warn("last-run marker unreadable, allowing run", "error", &ReadError{Option: g.option, Err: err})
		return Decision{State: Eligible, Reason: "last run unknown"}
	}

	last, err := ParseMarker(raw)
	if err != nil {
		slog.Warn("last-run marker unparseable, allowing run", "value", raw, "error", err)
		return Decision{State: Eligible, Reason: "last run unknown"}
	}

	elapsed := g.now().Sub(last)
	if elapsed < g.window {
		remaining := g.window - elapsed
		return Decision{
			State:     Throttled,
			LastRun:   last,
			Remaining: remaining,
			Reason:    fmt.Sprintf("last run %s ago, next run allowed in %s", elapsed.Round(time.Minute), remaining.Round(time.Minute)),
		}
	}

	return Decision{State: Eligible, LastRun: last, Reason: "window elapsed"}
}

// MarkRun records now as the last successful run.
func (g *Guard) MarkRun(ctx context.Context) error {
	value := FormatMarker(g.now())
	if err := g.store.SetSetting(ctx, g.option, value); err != nil {
		return fmt.Errorf("guard: write %s: %w", g.option, err)
	}
	return nil
}

// markerLayouts are accepted when reading. Timestamps without a zone are
// taken as UTC.
var markerLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseMarker parses an ISO-8601 timestamp.
func ParseMarker(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range markerLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// FormatMarker renders t as RFC 3339 in UTC.
func FormatMarker(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
