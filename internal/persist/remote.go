// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
)

// RemoteConfig configures the remote document backend. An empty URL
// disables the backend.
type RemoteConfig struct {
	// URL is the document endpoint. GET fetches the state document, PUT
	// replaces it.
	URL string

	// Token, when set, is sent as a bearer credential.
	Token string

	// Timeout bounds each HTTP request. Defaults to 15s.
	Timeout time.Duration
}

// RemoteBackend stores the state document against an HTTP document
// endpoint (a gist-style raw JSON store). All calls run through a
// circuit breaker so a flapping remote cannot stall save rounds: while
// the circuit is open the chain falls through to the next backend.
type RemoteBackend struct {
	cfg    RemoteConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker[*models.StateDocument]
}

// NewRemoteBackend creates the remote backend.
//
// Circuit breaker configuration:
//   - Max 2 requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 5 requests
func NewRemoteBackend(cfg RemoteConfig) *RemoteBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*models.StateDocument](gobreaker.Settings{
		Name:        "remote-state",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("remote storage circuit state change")
		},
	})

	return &RemoteBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
	}
}

// Name identifies the backend.
func (r *RemoteBackend) Name() string { return "remote" }

// Available reports whether a URL is configured.
func (r *RemoteBackend) Available() bool { return r.cfg.URL != "" }

// Load fetches the remote document.
func (r *RemoteBackend) Load(ctx context.Context) (*models.StateDocument, error) {
	return r.cb.Execute(func() (*models.StateDocument, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		r.authorize(req)

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch state: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch state: unexpected status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
		if err != nil {
			return nil, fmt.Errorf("read state body: %w", err)
		}

		var doc models.StateDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
		if doc.Users == nil {
			doc.Users = map[string]*models.UserRecord{}
		}
		return &doc, nil
	})
}

// Save replaces the remote document.
func (r *RemoteBackend) Save(ctx context.Context, doc *models.StateDocument) error {
	_, err := r.cb.Execute(func() (*models.StateDocument, error) {
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal state: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.cfg.URL, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		r.authorize(req)

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("put state: %w", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("put state: unexpected status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

func (r *RemoteBackend) authorize(req *http.Request) {
	if r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
}
