// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package services

import (
	"context"
	"time"
)

// TickerService runs a job function at a fixed interval until the
// context is canceled. It backs the periodic maintenance work: spam
// tracking sweeps, idle record eviction, snapshot recomputation, and
// watch-time crediting.
//
// The job receives the tick time. A job that panics crashes the
// service, which suture then restarts with backoff.
//
// Example usage:
//
//	svc := services.NewTickerService("spam-sweep", 30*time.Second,
//	    func(ctx context.Context, now time.Time) {
//	        filter.Sweep(now)
//	    })
//	tree.AddJobService(svc)
type TickerService struct {
	name     string
	interval time.Duration
	job      func(ctx context.Context, now time.Time)
}

// NewTickerService creates a periodic job service. A non-positive
// interval defaults to one minute.
func NewTickerService(name string, interval time.Duration, job func(ctx context.Context, now time.Time)) *TickerService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TickerService{name: name, interval: interval, job: job}
}

// Serve implements suture.Service. The first run happens after one full
// interval, not immediately; startup work belongs in main.
func (t *TickerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t.job(ctx, now)
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (t *TickerService) String() string {
	return t.name
}
