// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package pipeline implements the ordered per-event middleware chain. Each
// stage receives the shared event context and a next callback; a stage that
// does not call next halts the chain, which is how rejections (blacklist,
// spam, commands) stop downstream processing. A panicking stage is logged
// and skipped; one stage's fault never drops the remainder of the chain.
package pipeline

import (
	"time"

	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
)

// Context is the ephemeral per-event state shared by all stages. It is
// owned by a single Run call and discarded afterwards.
type Context struct {
	Event *models.ChatEvent

	// User is a detached copy of the resolved record, refreshed by each
	// stage that mutates state. Filtering stages run before resolution
	// and must not rely on it.
	User *models.UserRecord

	// Fields attached progressively by stages.
	EmoteCount int
	IsCommand  bool
	Command    string
	Args       []string
	XPResult   *models.XPResult
	Unlocked   []string

	// BlockReason is set by a filtering stage before halting.
	BlockReason string

	// HaltedAt names the stage that stopped the chain, empty if the event
	// ran to completion.
	HaltedAt string
}

// Stage is one step in the chain. Call next() to continue; return without
// calling it to halt.
type Stage func(pctx *Context, next func())

type namedStage struct {
	name string
	fn   Stage
}

// Pipeline executes registered stages in registration order.
type Pipeline struct {
	stages []namedStage
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Use registers a stage under a name. Registration order is execution
// order and is load-bearing: spam filtering must precede XP award, and
// command detection must precede XP award.
func (p *Pipeline) Use(name string, stage Stage) {
	p.stages = append(p.stages, namedStage{name: name, fn: stage})
}

// Run executes the chain for one event context.
func (p *Pipeline) Run(pctx *Context) {
	start := time.Now()
	p.call(pctx, 0)

	if pctx.HaltedAt != "" {
		logging.Debug().
			Str("stage", pctx.HaltedAt).
			Str("reason", pctx.BlockReason).
			Str("user", pctx.Event.Identity).
			Msg("pipeline halted")
	}
	logging.Debug().
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run complete")
}

// call invokes stage i, recovering a panicking stage and continuing with
// the next one.
func (p *Pipeline) call(pctx *Context, i int) {
	if i >= len(p.stages) {
		return
	}
	stage := p.stages[i]

	nextCalled := false
	next := func() {
		if nextCalled {
			return
		}
		nextCalled = true
		p.call(pctx, i+1)
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error().
					Str("stage", stage.name).
					Interface("panic", r).
					Msg("pipeline stage panicked, continuing with next stage")
				next()
			}
		}()
		stage.fn(pctx, next)
	}()

	if !nextCalled {
		pctx.HaltedAt = stage.name
	}
}

// Len returns the number of registered stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
