// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/chatforge/internal/achievements"
	"github.com/tomtom215/chatforge/internal/api"
	"github.com/tomtom215/chatforge/internal/bus"
	"github.com/tomtom215/chatforge/internal/config"
	"github.com/tomtom215/chatforge/internal/leveling"
	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
	"github.com/tomtom215/chatforge/internal/persist"
	"github.com/tomtom215/chatforge/internal/processor"
	"github.com/tomtom215/chatforge/internal/snapshot"
	"github.com/tomtom215/chatforge/internal/spam"
	"github.com/tomtom215/chatforge/internal/state"
	"github.com/tomtom215/chatforge/internal/streak"
	"github.com/tomtom215/chatforge/internal/supervisor"
	"github.com/tomtom215/chatforge/internal/supervisor/services"
	"github.com/tomtom215/chatforge/internal/syncbus"
	"github.com/tomtom215/chatforge/internal/websocket"
	"github.com/tomtom215/chatforge/internal/xp"
)

// activeWindow bounds how recently a user must have chatted to earn
// watch-time credit on a tick.
const activeWindow = 10 * time.Minute

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	instanceID := uuid.New().String()
	logging.Info().
		Str("instance", instanceID).
		Str("badger_path", cfg.Storage.BadgerPath).
		Bool("remote_backend", cfg.Storage.RemoteURL != "").
		Bool("sync", cfg.NATS.URL != "").
		Msg("Starting Chatforge")

	// === STORAGE BACKENDS ===
	// Remote first when configured, local Badger as durable fallback.
	var backends []persist.Backend
	if cfg.Storage.RemoteURL != "" {
		backends = append(backends, persist.NewRemoteBackend(persist.RemoteConfig{
			URL:     cfg.Storage.RemoteURL,
			Token:   cfg.Storage.RemoteToken,
			Timeout: cfg.Storage.RemoteTimeout,
		}))
		logging.Info().Str("url", cfg.Storage.RemoteURL).Msg("Remote state backend enabled")
	}
	if cfg.Storage.BadgerPath != "" {
		db, err := persist.OpenBadger(cfg.Storage.BadgerPath)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Storage.BadgerPath).Msg("Failed to open Badger store")
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing Badger store")
			}
		}()
		backends = append(backends, persist.NewBadgerBackend(db))
	}
	storage := persist.NewStorageManager(backends...)

	// === STATE ===
	states := state.NewManager(state.Config{
		ReloadInterval: cfg.State.ReloadInterval,
		EvictThreshold: cfg.State.EvictThreshold,
		EvictIdleAfter: cfg.State.EvictIdleAfter,
	}, instanceID, storage)

	startupNow := time.Now()
	if _, err := states.EnsureLoaded(startupNow); err != nil {
		// Degrade to empty in-memory state; a later save round will
		// still try every backend.
		logging.Error().Err(err).Msg("State load failed, starting empty")
	} else {
		logging.Info().Int("users", states.ResidentCount()).Msg("State loaded")
	}

	// === CORE SERVICES ===
	eventBus := bus.New()
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	calc := leveling.NewCalculator()
	streaks := streak.NewManager()

	xpSvc := xp.NewService(xp.Config{
		AwardCooldown:        cfg.XP.AwardCooldown,
		MaxPerMessage:        cfg.XP.MaxPerMessage,
		WatchTimeXPPerMinute: cfg.XP.WatchTimePerMin,
		Blacklist:            cfg.Chat.Blacklist,
	}, calc, streaks, eventBus)

	defs, err := achievements.LoadCatalog()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load achievement catalog")
	}
	achSvc := achievements.NewService(defs, calc, eventBus)
	logging.Info().Int("achievements", len(defs)).Msg("Achievement catalog loaded")

	// Silent bulk pass: award achievements earned while the engine was
	// down (or under an older catalog) without events or bonus XP.
	granted := 0
	for _, u := range states.All() {
		states.Mutate(u.ID, startupNow, func(rec *models.UserRecord) {
			granted += len(achSvc.CheckBulk(rec, startupNow))
		})
	}
	if granted > 0 {
		logging.Info().Int("granted", granted).Msg("Bulk achievement pass granted retroactive unlocks")
	}

	filter := spam.NewFilter(spam.Config{
		CharFloodMinLen: cfg.Spam.CharFloodMinLen,
		CharFloodRatio:  cfg.Spam.CharFloodRatio,
		RepeatThreshold: cfg.Spam.RepeatThreshold,
		CopypastaMinLen: cfg.Spam.CopypastaMinLen,
		CopypastaWindow: cfg.Spam.CopypastaWindow,
		CopypastaUsers:  cfg.Spam.CopypastaUsers,
		RateWindow:      cfg.Spam.RateWindow,
		RateThreshold:   cfg.Spam.RateThreshold,
	})

	persistMgr := persist.NewManager(persist.ManagerConfig{
		Debounce:    cfg.Storage.SaveDebounce,
		Jitter:      cfg.Storage.SaveJitter,
		SaveTimeout: cfg.Storage.SaveTimeout,
	}, storage, states)

	// === CROSS-INSTANCE SYNC (optional) ===
	syncCh, err := syncbus.Connect(syncbus.Config{
		URL:     cfg.NATS.URL,
		Subject: cfg.NATS.Subject,
	}, instanceID, states)
	if err != nil {
		logging.Error().Err(err).Msg("Sync connect failed, continuing standalone")
		syncCh = nil
	}

	// === PIPELINE ===
	proc := processor.New(processor.Config{
		CommandPrefix:    cfg.Chat.CommandPrefix,
		BannedSubstrings: cfg.Chat.BannedSubstrings,
		Blacklist:        cfg.Chat.Blacklist,
	}, filter, states, xpSvc, achSvc, eventBus, syncCh, persistMgr)

	// === FAN-OUT ===
	hub := websocket.NewHub()
	forwarder := websocket.NewForwarder(hub, eventBus)
	snaps := snapshot.NewService(snapshot.Config{TopN: cfg.Snapshot.TopN}, states, hub)
	snaps.Recompute(startupNow)

	// === HTTP SERVER ===
	router := api.NewRouter(states, snaps, calc, xpSvc, proc, hub, syncCh)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// === SUPERVISOR TREE ===
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewRunnerService("overlay-hub", hub))
	tree.AddMessagingService(services.NewRunnerService("event-forwarder", forwarder))
	if syncCh != nil {
		tree.AddMessagingService(services.NewSyncService(syncCh))
	}

	tree.AddJobService(services.NewTickerService("spam-sweep", cfg.Spam.SweepInterval,
		func(_ context.Context, _ time.Time) {
			filter.Sweep()
		}))
	tree.AddJobService(services.NewTickerService("idle-eviction", cfg.State.EvictInterval,
		func(_ context.Context, now time.Time) {
			states.EvictIdle(now)
		}))
	tree.AddJobService(services.NewTickerService("snapshot-recompute", cfg.Snapshot.Interval,
		func(_ context.Context, now time.Time) {
			snaps.Recompute(now)
		}))
	tree.AddJobService(services.NewTickerService("watch-time", cfg.XP.WatchTimeTick,
		func(_ context.Context, now time.Time) {
			creditWatchTime(states, xpSvc, persistMgr, cfg.XP.WatchTimeTick, now)
		}))

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === RUN ===
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Final flush: persist whatever the debounce round had not written.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.Storage.SaveTimeout)
	defer flushCancel()
	if err := persistMgr.Close(flushCtx); err != nil {
		logging.Error().Err(err).Msg("Final state flush failed")
	} else {
		logging.Info().Msg("State flushed")
	}

	syncCh.Close()

	logging.Info().Msg("Chatforge stopped gracefully")
}

// creditWatchTime credits one tick of watch minutes to every user who
// chatted inside the active window. Only runs while the stream is live;
// level-ups surface through the bus like any other award.
func creditWatchTime(states *state.Manager, xpSvc *xp.Service, saver *persist.Manager, tick time.Duration, now time.Time) {
	if !xpSvc.StreamLive() {
		return
	}

	minutes := int(tick.Minutes())
	if minutes < 1 {
		minutes = 1
	}

	credited := 0
	for _, u := range states.All() {
		if u.LastActivityAt.IsZero() || now.Sub(u.LastActivityAt) > activeWindow {
			continue
		}
		states.Mutate(u.ID, now, func(rec *models.UserRecord) {
			xpSvc.AddWatchTime(rec, minutes, now)
		})
		credited++
	}

	if credited > 0 {
		saver.Notify()
		logging.Debug().Int("users", credited).Int("minutes", minutes).Msg("watch time credited")
	}
}
