// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// progress.go tracks batch generation progress in Valkey so a polling
// endpoint can report status while a run executes.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"certstudio/internal/generate"
)

const (
	// progressKeyPrefix is the Valkey key prefix for generation jobs.
	progressKeyPrefix = "genjob:"

	// DefaultProgressTTL keeps finished jobs readable for a while after
	// completion before they expire.
	DefaultProgressTTL = 30 * time.Minute
)

// JobProgress is the persisted state of one generation job.
type JobProgress struct {
	generate.Progress
	Done      bool      `json:"done"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressTracker stores per-job generation progress in Valkey.
type ProgressTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressTracker creates a progress tracker backed by the given
// Valkey client.
func NewProgressTracker(client *redis.Client, ttl time.Duration) *ProgressTracker {
	if ttl == 0 {
		ttl = DefaultProgressTTL
	}
	return &ProgressTracker{client: client, ttl: ttl}
}

// Update stores the latest progress for a job. Write failures are logged
// and swallowed; progress reporting must never abort a generation run.
func (pt *ProgressTracker) Update(ctx context.Context, jobID string, p generate.Progress) {
	pt.write(ctx, jobID, JobProgress{Progress: p, UpdatedAt: time.Now().UTC()})
}

// Finish marks a job complete, keeping the last reported counts.
func (pt *ProgressTracker) Finish(ctx context.Context, jobID string, p generate.Progress) {
	pt.write(ctx, jobID, JobProgress{Progress: p, Done: true, UpdatedAt: time.Now().UTC()})
}

// Fail marks a job failed with its error message.
func (pt *ProgressTracker) Fail(ctx context.Context, jobID string, p generate.Progress, errMsg string) {
	pt.write(ctx, jobID, JobProgress{Progress: p, Done: true, Error: errMsg, UpdatedAt: time.Now().UTC()})
}

// Get retrieves a job's progress. Returns false on miss or expiry.
func (pt *ProgressTracker) Get(ctx context.Context, jobID string) (JobProgress, bool) {
	val, err := pt.client.Get(ctx, progressKeyPrefix+jobID).Bytes()
	if err == redis.Nil {
		return JobProgress{}, false
	}
	if err != nil {
		slog.Warn("progress get error", "job", jobID, "error", err)
		return JobProgress{}, false
	}
	var jp JobProgress
	if err := json.Unmarshal(val, &jp); err != nil {
		slog.Warn("progress decode error", "job", jobID, "error", err)
		return JobProgress{}, false
	}
	return jp, true
}

func (pt *ProgressTracker) write(ctx context.Context, jobID string, jp JobProgress) {
	data, err := json.Marshal(jp)
	if err != nil {
		slog.Warn("progress encode error", "job", jobID, "error", err)
		return
	}
	if err := pt.client.Set(ctx, progressKeyPrefix+jobID, data, pt.ttl).Err(); err != nil {
		slog.Warn("progress set error", "job", jobID, "error", err)
	}
}
