// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter enforces a per-client sliding window: at most limit
// requests within the trailing window. Guards the credential endpoints
// and generation starts, both of which are expensive to serve.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time

	done chan struct{}
}

// NewRateLimiter builds a limiter and starts its janitor, which drops
// clients that have gone quiet for a full window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		done:   make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Stop shuts down the janitor goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) janitor() {
	tick := time.NewTicker(5 * time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// sweep forgets clients whose newest hit has aged out of the window.
func (rl *RateLimiter) sweep() {
	horizon := time.Now().Add(-rl.window)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, stamps := range rl.hits {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(horizon) {
			delete(rl.hits, key)
		}
	}
}

// allow records a hit for key and reports whether it stays under the limit.
func (rl *RateLimiter) allow(key string) bool {
	now := time.Now()
	horizon := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	stamps := rl.hits[key]
	// Hits are appended in order, so everything before the first
	// in-window stamp can be cut in one slice.
	keep := 0
	for keep < len(stamps) && !stamps[keep].After(horizon) {
		keep++
	}
	stamps = stamps[keep:]

	if len(stamps) >= rl.limit {
		rl.hits[key] = stamps
		return false
	}
	rl.hits[key] = append(stamps, now)
	return true
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			jsonError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the originating client address, honoring the proxy
// headers set by the reverse proxy in front of the service.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Leftmost entry is the original client.
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i != -1 {
		return addr[:i]
	}
	return addr
}
