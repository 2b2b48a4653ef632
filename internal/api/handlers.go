// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/chatforge/internal/leveling"
	"github.com/tomtom215/chatforge/internal/models"
	"github.com/tomtom215/chatforge/internal/syncbus"
	"github.com/tomtom215/chatforge/internal/validation"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status         string `json:"status"`
	Sync           string `json:"sync"`
	ResidentUsers  int    `json:"resident_users"`
	DirtyRecords   int    `json:"dirty_records"`
	OverlayClients int    `json:"overlay_clients"`
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Sync:          "disabled",
		ResidentUsers: rt.states.ResidentCount(),
		DirtyRecords:  rt.states.DirtyCount(),
	}
	if rt.hub != nil {
		resp.OverlayClients = rt.hub.ClientCount()
	}
	if rt.sync != nil {
		switch err := rt.sync.Healthy(); {
		case err == nil:
			resp.Sync = "ok"
		case errors.Is(err, syncbus.ErrDisabled):
			// A typed-nil channel reaches here when NATS is not
			// configured; that is not a degradation.
		default:
			resp.Sync = err.Error()
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, resp)
}

// LeaderboardRequest carries the validated leaderboard query parameters.
type LeaderboardRequest struct {
	Limit int `validate:"min=1,max=100"`
}

func (rt *Router) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board := rt.snaps.Leaderboard()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer")
			return
		}
		req := LeaderboardRequest{Limit: limit}
		if verr := validation.ValidateStruct(&req); verr != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
			return
		}
		if limit < len(board.TopUsers) {
			board = &models.LeaderboardSnapshot{
				TopUsers: board.TopUsers[:limit],
				Count:    board.Count,
			}
		}
	}

	respondJSON(w, r, http.StatusOK, board)
}

func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, rt.snaps.Stats())
}

// UserResponse is the per-user payload: the record plus derived
// progression info the overlays render.
type UserResponse struct {
	User        *models.UserRecord `json:"user"`
	Title       string             `json:"title"`
	Progress    float64            `json:"progress"`
	XPToNext    int                `json:"xp_to_next"`
	NextLevelXP int                `json:"next_level_xp"`
}

func (rt *Router) handleUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "user id is required")
		return
	}

	rec, ok := rt.states.Get(id)
	if !ok {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "unknown user")
		return
	}

	respondJSON(w, r, http.StatusOK, UserResponse{
		User:        rec,
		Title:       leveling.TitleForLevel(rec.Level),
		Progress:    rt.calc.Progress(rec.XP),
		XPToNext:    rt.calc.XPToNext(rec.XP),
		NextLevelXP: rt.calc.XPForLevel(rec.Level + 1),
	})
}

// StreamStateRequest toggles the live flag that gates live-chat and
// stream-open XP sources. The ingest integration posts this when the
// broadcast starts and ends.
type StreamStateRequest struct {
	Live bool `json:"live"`
}

func (rt *Router) handleStreamState(w http.ResponseWriter, r *http.Request) {
	var req StreamStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body")
		return
	}

	rt.xpSvc.SetStreamLive(req.Live, time.Now())
	respondJSON(w, r, http.StatusOK, map[string]bool{"live": req.Live})
}

// IngestResponse summarizes one processed event for the caller.
type IngestResponse struct {
	Accepted    bool             `json:"accepted"`
	HaltedAt    string           `json:"halted_at,omitempty"`
	BlockReason string           `json:"block_reason,omitempty"`
	Command     string           `json:"command,omitempty"`
	XP          *models.XPResult `json:"xp,omitempty"`
	Unlocked    []string         `json:"unlocked,omitempty"`
}

// handleIngest feeds one normalized chat event through the pipeline.
// Chat transport adapters that run out of process post here.
func (rt *Router) handleIngest(w http.ResponseWriter, r *http.Request) {
	var event models.ChatEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body")
		return
	}
	if event.Identity == "" && event.DisplayName == "" {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "identity or display_name is required")
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	pctx := rt.proc.Process(&event)
	respondJSON(w, r, http.StatusOK, IngestResponse{
		Accepted:    pctx.HaltedAt == "",
		HaltedAt:    pctx.HaltedAt,
		BlockReason: pctx.BlockReason,
		Command:     pctx.Command,
		XP:          pctx.XPResult,
		Unlocked:    pctx.Unlocked,
	})
}
