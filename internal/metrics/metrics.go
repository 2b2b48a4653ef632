// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_processed_total",
			Help: "Total number of chat events run through the pipeline",
		},
		[]string{"outcome"}, // "passed", "blocked", "command"
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_event_processing_duration_seconds",
			Help:    "Duration of one full pipeline run",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	MessagesBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_blocked_total",
			Help: "Total number of messages blocked before XP processing",
		},
		[]string{"reason"}, // spam reasons, "blacklist", "language"
	)

	// Progression Metrics
	XPAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_xp_awarded_total",
			Help: "Total XP granted across all users",
		},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_level_ups_total",
			Help: "Total number of level-up events",
		},
	)

	AchievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_achievements_unlocked_total",
			Help: "Total number of achievement unlocks",
		},
		[]string{"rarity"},
	)

	StreakMilestones = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_streak_milestones_total",
			Help: "Total number of streak milestone awards",
		},
	)

	// State Metrics
	ResidentUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "state_resident_users",
			Help: "Current number of user records held in memory",
		},
	)

	DirtyBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "state_dirty_backlog",
			Help: "User records waiting for the next save round",
		},
	)

	SyncUpdatesApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "state_sync_updates_applied_total",
			Help: "Cross-instance record updates accepted (newer-wins)",
		},
	)

	SyncUpdatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "state_sync_updates_dropped_total",
			Help: "Cross-instance record updates discarded as stale or echoed",
		},
	)

	// Persistence Metrics
	SaveRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persist_save_rounds_total",
			Help: "Total number of debounced save rounds",
		},
		[]string{"result"}, // "ok", "error"
	)

	SaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "persist_save_duration_seconds",
			Help:    "Duration of one save round across the backend chain",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	BackendSaveErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persist_backend_errors_total",
			Help: "Per-backend save and load failures",
		},
		[]string{"backend", "operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active overlay WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to overlays",
		},
	)

	// Cache Metrics
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or idle sweep)",
		},
		[]string{"cache_type"}, // "spam_copy", "user_state", "xp_cooldown"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordHTTPRequest records one completed API request.
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSaveRound records one completed save round.
func RecordSaveRound(duration time.Duration, err error) {
	SaveDuration.Observe(duration.Seconds())
	if err != nil {
		SaveRounds.WithLabelValues("error").Inc()
		return
	}
	SaveRounds.WithLabelValues("ok").Inc()
}

// RecordBlocked records one blocked message by detector reason.
func RecordBlocked(reason string) {
	EventsProcessed.WithLabelValues("blocked").Inc()
	MessagesBlocked.WithLabelValues(reason).Inc()
}

// RecordXPResult records the progression outcome of one processed
// message.
func RecordXPResult(total int, leveledUp, milestone bool) {
	if total > 0 {
		XPAwarded.Add(float64(total))
	}
	if leveledUp {
		LevelUps.Inc()
	}
	if milestone {
		StreakMilestones.Inc()
	}
}
