// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package models

// Rarity is the achievement severity tier controlling its fixed XP reward.
type Rarity string

// Achievement rarities, ascending.
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// XPReward returns the fixed XP granted when an achievement of this rarity
// unlocks during live processing.
func (r Rarity) XPReward() int {
	switch r {
	case RarityLegendary:
		return 500
	case RarityEpic:
		return 200
	case RarityRare:
		return 100
	case RarityUncommon:
		return 50
	default:
		return 25
	}
}

// RuleOperator is one of the closed set of comparison operators an
// achievement rule may use.
type RuleOperator string

// Rule operators.
const (
	OpGTE      RuleOperator = ">="
	OpLTE      RuleOperator = "<="
	OpGT       RuleOperator = ">"
	OpLT       RuleOperator = "<"
	OpEQ       RuleOperator = "=="
	OpNEQ      RuleOperator = "!="
	OpIncludes RuleOperator = "includes"
)

// AchievementRule is the declarative unlock condition: a dotted field path
// into the user record or per-user stats cache, an operator, and a value.
type AchievementRule struct {
	Field    string       `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    interface{}  `json:"value"`
}

// AchievementDefinition is one immutable catalog entry. Loaded once at
// startup; never mutated at runtime.
type AchievementDefinition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Condition   string          `json:"condition"`
	Category    string          `json:"category"`
	Rarity      Rarity          `json:"rarity"`
	Rule        AchievementRule `json:"rule"`
}
