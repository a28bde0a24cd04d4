// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TriggerLimiter caps how often one client may hit an expensive endpoint.
// Each client keeps the timestamps of its accepted requests inside a
// sliding window.
type TriggerLimiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewTriggerLimiter allows limit requests per window and client. A limit of
// zero or less disables limiting.
func NewTriggerLimiter(limit int, window time.Duration) *TriggerLimiter {
	return &TriggerLimiter{
		clients: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// allow reports whether key may proceed and, if not, how long until the
// oldest request leaves the window.
func (tl *TriggerLimiter) allow(key string) (bool, time.Duration) {
	now := tl.now()
	cutoff := now.Add(-tl.window)

	tl.mu.Lock()
	defer tl.mu.Unlock()

	// Drop idle clients while we hold the lock; the map stays small.
	for k, ts := range tl.clients {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(tl.clients, k)
		}
	}

	valid := tl.clients[key][:0:0]
	for _, ts := range tl.clients[key] {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= tl.limit {
		tl.clients[key] = valid
		return false, valid[0].Sub(cutoff)
	}

	tl.clients[key] = append(valid, now)
	return true, 0
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
func (tl *TriggerLimiter) Middleware(next http.Handler) http.Handler {
	if tl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := tl.allow(clientIP(r))
		if !ok {
			secs := int(wait.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"status":"error","message":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
