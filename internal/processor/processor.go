// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package processor assembles the per-message stage chain and owns the
// post-run bookkeeping: dirty marking, save notification, sync broadcast,
// and domain event publication. Stage order is load-bearing; see New.
package processor

import (
	"strings"
	"time"

	"github.com/tomtom215/chatforge/internal/achievements"
	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/metrics"
	"github.com/tomtom215/chatforge/internal/models"
	"github.com/tomtom215/chatforge/internal/pipeline"
	"github.com/tomtom215/chatforge/internal/spam"
	"github.com/tomtom215/chatforge/internal/state"
	"github.com/tomtom215/chatforge/internal/xp"
)

// Block reasons raised by processor-owned stages. Spam reasons come from
// the spam package.
const (
	ReasonBlacklist = "blacklist"
	ReasonLanguage  = "language"
)

// Publisher is the slice of the event bus the processor needs.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// Broadcaster pushes mutated records to sibling instances.
type Broadcaster interface {
	BroadcastRecord(rec *models.UserRecord) error
}

// Saver is notified when dirty records exist.
type Saver interface {
	Notify()
}

// Config holds processor settings. Zero values take defaults.
type Config struct {
	// CommandPrefix marks a message as a command. Defaults to "!".
	CommandPrefix string

	// BannedSubstrings blocks messages containing any entry,
	// case-folded.
	BannedSubstrings []string

	// Blacklist lists identities and display names whose messages are
	// rejected at the first stage.
	Blacklist []string
}

// Processor runs inbound chat events through the stage chain.
type Processor struct {
	cfg    Config
	banned []string

	pipe      *pipeline.Pipeline
	filter    *spam.Filter
	states    *state.Manager
	xpSvc     *xp.Service
	achSvc    *achievements.Service
	publisher Publisher
	sync      Broadcaster
	saver     Saver

	blacklist map[string]struct{}
}

// New assembles the chain in its fixed order: blacklist, language, spam,
// emotes, command, xp, achievements, stats. Filtering stages run before
// anything mutates the user record, so a blocked message leaves no trace
// in progression state.
func New(cfg Config, filter *spam.Filter, states *state.Manager, xpSvc *xp.Service,
	achSvc *achievements.Service, publisher Publisher, sync Broadcaster, saver Saver) *Processor {

	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}

	banned := make([]string, 0, len(cfg.BannedSubstrings))
	for _, s := range cfg.BannedSubstrings {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			banned = append(banned, s)
		}
	}
	blacklist := make(map[string]struct{}, len(cfg.Blacklist))
	for _, name := range cfg.Blacklist {
		blacklist[strings.ToLower(name)] = struct{}{}
	}

	p := &Processor{
		cfg:       cfg,
		banned:    banned,
		pipe:      pipeline.New(),
		filter:    filter,
		states:    states,
		xpSvc:     xpSvc,
		achSvc:    achSvc,
		publisher: publisher,
		sync:      sync,
		saver:     saver,
		blacklist: blacklist,
	}

	p.pipe.Use("blacklist", p.stageBlacklist)
	p.pipe.Use("language", p.stageLanguage)
	p.pipe.Use("spam", p.stageSpam)
	p.pipe.Use("emotes", p.stageEmotes)
	p.pipe.Use("command", p.stageCommand)
	p.pipe.Use("xp", p.stageXP)
	p.pipe.Use("achievements", p.stageAchievements)
	p.pipe.Use("stats", p.stageStats)

	return p
}

// Process runs one event through the chain and finishes the bookkeeping
// for any record the run mutated.
func (p *Processor) Process(event *models.ChatEvent) *pipeline.Context {
	start := time.Now()
	pctx := &pipeline.Context{Event: event}
	p.pipe.Run(pctx)
	metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())

	switch {
	case pctx.BlockReason != "":
		metrics.RecordBlocked(pctx.BlockReason)
	case pctx.IsCommand:
		metrics.EventsProcessed.WithLabelValues("command").Inc()
	default:
		metrics.EventsProcessed.WithLabelValues("passed").Inc()
	}

	if pctx.User != nil {
		p.finish(pctx)
	}
	return pctx
}

// finish persists and broadcasts the mutated record.
func (p *Processor) finish(pctx *pipeline.Context) {
	id := pctx.User.ID
	p.states.MarkDirty(id, pctx.Event.Timestamp)
	metrics.ResidentUsers.Set(float64(p.states.ResidentCount()))
	metrics.DirtyBacklog.Set(float64(p.states.DirtyCount()))

	if p.saver != nil {
		p.saver.Notify()
	}
	if p.sync != nil {
		if rec, ok := p.states.Get(id); ok {
			if err := p.sync.BroadcastRecord(rec); err != nil {
				logging.Warn().Err(err).Str("user", id).Msg("sync broadcast failed")
			}
		}
	}
}

// userKey prefers the stable identity, falling back to the display name
// for legacy events without one.
func userKey(e *models.ChatEvent) string {
	if e.Identity != "" {
		return e.Identity
	}
	return e.DisplayName
}

func (p *Processor) stageBlacklist(pctx *pipeline.Context, next func()) {
	e := pctx.Event
	if _, ok := p.blacklist[strings.ToLower(e.Identity)]; ok {
		pctx.BlockReason = ReasonBlacklist
		return
	}
	if _, ok := p.blacklist[strings.ToLower(e.DisplayName)]; ok {
		pctx.BlockReason = ReasonBlacklist
		return
	}
	next()
}

func (p *Processor) stageLanguage(pctx *pipeline.Context, next func()) {
	folded := strings.ToLower(pctx.Event.Text)
	for _, banned := range p.banned {
		if strings.Contains(folded, banned) {
			pctx.BlockReason = ReasonLanguage
			return
		}
	}
	next()
}

func (p *Processor) stageSpam(pctx *pipeline.Context, next func()) {
	e := pctx.Event
	verdict := p.filter.Check(userKey(e), e.Text, e.Timestamp)
	if verdict.Blocked {
		pctx.BlockReason = verdict.Reason
		return
	}
	next()
}

func (p *Processor) stageEmotes(pctx *pipeline.Context, next func()) {
	pctx.EmoteCount = len(pctx.Event.Tags.Emotes)
	next()
}

// stageCommand halts the chain for command messages: commands are not
// chat content and never earn XP.
func (p *Processor) stageCommand(pctx *pipeline.Context, next func()) {
	e := pctx.Event
	text := strings.TrimSpace(e.Text)
	if !strings.HasPrefix(text, p.cfg.CommandPrefix) || len(text) <= len(p.cfg.CommandPrefix) {
		next()
		return
	}

	fields := strings.Fields(text[len(p.cfg.CommandPrefix):])
	if len(fields) == 0 {
		next()
		return
	}

	pctx.IsCommand = true
	pctx.Command = strings.ToLower(fields[0])
	pctx.Args = fields[1:]

	if p.publisher != nil {
		err := p.publisher.Publish(models.TopicCommand, models.CommandEvent{
			Identity:    e.Identity,
			DisplayName: e.DisplayName,
			Command:     pctx.Command,
			Args:        pctx.Args,
			Tier:        e.Tier().String(),
			Timestamp:   e.Timestamp,
		})
		if err != nil {
			logging.Error().Err(err).Str("command", pctx.Command).Msg("failed to publish command event")
		}
	}
}

// stageXP mutates the record inside the state manager's write lock so the
// snapshot and watch-time timers never observe a half-applied message.
func (p *Processor) stageXP(pctx *pipeline.Context, next func()) {
	e := pctx.Event
	p.states.Update(userKey(e), e.DisplayName, e.Timestamp, func(user *models.UserRecord) {
		user.TotalMessages++
		user.DayFor(e.Timestamp).Messages++
		if e.Tags.SubscriberMonths > user.SubscriptionMonths {
			user.SubscriptionMonths = e.Tags.SubscriberMonths
		}

		pctx.XPResult = p.xpSvc.TrackMessage(user, e, pctx.EmoteCount)
		pctx.User = user.Clone()
	})
	metrics.RecordXPResult(pctx.XPResult.Total, pctx.XPResult.LeveledUp, pctx.XPResult.StreakMilestone)
	next()
}

func (p *Processor) stageAchievements(pctx *pipeline.Context, next func()) {
	e := pctx.Event
	p.states.Mutate(userKey(e), e.Timestamp, func(user *models.UserRecord) {
		pctx.Unlocked = p.achSvc.CheckMessage(user, achievements.MessageContext{
			Text:       e.Text,
			EmoteCount: pctx.EmoteCount,
			Timestamp:  e.Timestamp,
		})
		pctx.User = user.Clone()
	})
	for _, id := range pctx.Unlocked {
		for _, def := range p.achSvc.Definitions() {
			if def.ID == id {
				metrics.AchievementsUnlocked.WithLabelValues(string(def.Rarity)).Inc()
				break
			}
		}
	}
	next()
}

// stageStats publishes the rendering-ready per-message result.
func (p *Processor) stageStats(pctx *pipeline.Context, next func()) {
	if p.publisher != nil {
		e := pctx.Event
		if err := p.publisher.Publish(models.TopicMessageResult, models.MessageResultEvent{
			Identity:    e.Identity,
			DisplayName: e.DisplayName,
			Text:        e.Text,
			EmoteCount:  pctx.EmoteCount,
			XP:          pctx.XPResult,
			Unlocked:    pctx.Unlocked,
			Timestamp:   e.Timestamp,
		}); err != nil {
			logging.Error().Err(err).Msg("failed to publish message result")
		}

		if err := p.publisher.Publish(models.TopicUserActivity, models.UserActivityEvent{
			Identity:    e.Identity,
			DisplayName: e.DisplayName,
			Timestamp:   e.Timestamp,
		}); err != nil {
			logging.Error().Err(err).Msg("failed to publish user activity")
		}
	}
	next()
}
