// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package models

import "time"

// EmoteSpan marks one emote occurrence inside a message, as reported by the
// chat transport's tags.
type EmoteSpan struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// EventTags carries the transport metadata attached to a chat event.
type EventTags struct {
	// Badges maps badge name to version, e.g. "moderator" -> "1".
	Badges map[string]string `json:"badges,omitempty"`

	// Subscriber is true when the sender holds an active subscription.
	Subscriber bool `json:"subscriber"`

	// SubscriberMonths is the cumulative subscription length, when known.
	SubscriberMonths int `json:"subscriber_months,omitempty"`

	// Emotes lists the emote spans present in the message text.
	Emotes []EmoteSpan `json:"emotes,omitempty"`
}

// ChatEvent is one normalized inbound chat event, delivered by the transport
// collaborator in arrival order.
type ChatEvent struct {
	// Identity is the stable numeric user ID assigned by the platform.
	// May be empty for legacy events that only carry a display name.
	Identity string `json:"identity"`

	// DisplayName is the user-visible name. Mutable across sessions.
	DisplayName string `json:"display_name"`

	Text      string    `json:"text"`
	Tags      EventTags `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}

// BadgeTier is a coarse permission level derived from event badges.
type BadgeTier int

// Badge tiers, ordered from least to most privileged.
const (
	TierViewer BadgeTier = iota
	TierSubscriber
	TierVIP
	TierModerator
	TierBroadcaster
)

// String returns the tier name for logging.
func (t BadgeTier) String() string {
	switch t {
	case TierBroadcaster:
		return "broadcaster"
	case TierModerator:
		return "moderator"
	case TierVIP:
		return "vip"
	case TierSubscriber:
		return "subscriber"
	default:
		return "viewer"
	}
}

// Tier derives the sender's permission tier from the event badges.
func (e *ChatEvent) Tier() BadgeTier {
	switch {
	case e.Tags.Badges["broadcaster"] != "":
		return TierBroadcaster
	case e.Tags.Badges["moderator"] != "":
		return TierModerator
	case e.Tags.Badges["vip"] != "":
		return TierVIP
	case e.Tags.Subscriber:
		return TierSubscriber
	default:
		return TierViewer
	}
}

// HasTier reports whether the sender meets or exceeds the given tier.
func (e *ChatEvent) HasTier(min BadgeTier) bool {
	return e.Tier() >= min
}
