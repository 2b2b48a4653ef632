// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/chatforge/internal/leveling"
	"github.com/tomtom215/chatforge/internal/middleware"
	"github.com/tomtom215/chatforge/internal/processor"
	"github.com/tomtom215/chatforge/internal/snapshot"
	"github.com/tomtom215/chatforge/internal/state"
	"github.com/tomtom215/chatforge/internal/websocket"
	"github.com/tomtom215/chatforge/internal/xp"
)

// HealthChecker reports a component's liveness. Satisfied by
// *syncbus.Channel, including a nil one (healthy no-op).
type HealthChecker interface {
	Healthy() error
}

// Router holds the handler dependencies for the read API.
type Router struct {
	states *state.Manager
	snaps  *snapshot.Service
	calc   *leveling.Calculator
	xpSvc  *xp.Service
	proc   *processor.Processor
	hub    *websocket.Hub
	sync   HealthChecker
}

// NewRouter creates the read API router. proc, hub, and sync may be nil;
// the corresponding endpoints are then not registered and sync reports
// healthy.
func NewRouter(states *state.Manager, snaps *snapshot.Service, calc *leveling.Calculator, xpSvc *xp.Service, proc *processor.Processor, hub *websocket.Hub, sync HealthChecker) *Router {
	return &Router{
		states: states,
		snaps:  snaps,
		calc:   calc,
		xpSvc:  xpSvc,
		proc:   proc,
		hub:    hub,
		sync:   sync,
	}
}

// Handler builds the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	// Global middleware applied to all routes
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Get("/health", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if rt.hub != nil {
		r.Get("/ws", rt.hub.ServeWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leaderboard", rt.handleLeaderboard)
		r.Get("/stats", rt.handleStats)
		r.Get("/users/{id}", rt.handleUser)
		r.Post("/stream", rt.handleStreamState)
		if rt.proc != nil {
			r.Post("/events", rt.handleIngest)
		}
	})

	return r
}
