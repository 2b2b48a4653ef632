// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package achievements

import (
	"strings"

	"github.com/tomtom215/chatforge/internal/models"
)

// accessor reads one rule field from a user record. The field set is fixed
// and enumerable at rule-load time, so lookup is a table of typed accessor
// functions rather than reflective path traversal.
type accessor func(u *models.UserRecord) interface{}

// statsPrefix routes a field into the per-user derived stats cache.
const statsPrefix = "stats."

// fieldAccessors is the closed set of record-backed rule fields.
var fieldAccessors = map[string]accessor{
	"xp":                  func(u *models.UserRecord) interface{} { return u.XP },
	"level":               func(u *models.UserRecord) interface{} { return u.Level },
	"total_messages":      func(u *models.UserRecord) interface{} { return u.TotalMessages },
	"streak_days":         func(u *models.UserRecord) interface{} { return u.StreakDays },
	"best_streak":         func(u *models.UserRecord) interface{} { return u.BestStreak },
	"watch_time_minutes":  func(u *models.UserRecord) interface{} { return u.WatchTimeMinutes },
	"subscription_months": func(u *models.UserRecord) interface{} { return u.SubscriptionMonths },
	"achievements_count":  func(u *models.UserRecord) interface{} { return len(u.Achievements) },
}

// resolveAccessor returns the accessor for a rule field. Fields under
// "stats." read the derived stats cache; a missing stats key evaluates as
// nil, which no operator matches except !=.
func resolveAccessor(field string) (accessor, bool) {
	if acc, ok := fieldAccessors[field]; ok {
		return acc, true
	}
	if key, ok := strings.CutPrefix(field, statsPrefix); ok && key != "" {
		return func(u *models.UserRecord) interface{} {
			if u.AchievementStats == nil {
				return nil
			}
			return u.AchievementStats[key]
		}, true
	}
	return nil, false
}

// evaluateRule applies one rule to a user record.
func evaluateRule(rule *models.AchievementRule, u *models.UserRecord) bool {
	acc, ok := resolveAccessor(rule.Field)
	if !ok {
		return false
	}
	return compare(acc(u), rule.Operator, rule.Value)
}

// compare dispatches the operator over the field value. Numeric operands
// compare as float64; == and != also handle bools and strings; includes
// checks list membership or substring containment.
func compare(field interface{}, op models.RuleOperator, want interface{}) bool {
	switch op {
	case models.OpGTE, models.OpLTE, models.OpGT, models.OpLT:
		f, fok := toFloat(field)
		w, wok := toFloat(want)
		if !fok || !wok {
			return false
		}
		switch op {
		case models.OpGTE:
			return f >= w
		case models.OpLTE:
			return f <= w
		case models.OpGT:
			return f > w
		default:
			return f < w
		}

	case models.OpEQ:
		return looseEqual(field, want)

	case models.OpNEQ:
		return !looseEqual(field, want)

	case models.OpIncludes:
		return includes(field, want)

	default:
		return false
	}
}

// toFloat coerces the numeric types that appear in records and JSON-decoded
// rule values.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// looseEqual compares across the numeric/bool/string types the stats cache
// holds. nil equals nothing.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ba == bb
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	return false
}

// includes reports membership of want in a list-valued field, or substring
// containment for string fields.
func includes(field, want interface{}) bool {
	switch list := field.(type) {
	case []interface{}:
		for _, item := range list {
			if looseEqual(item, want) {
				return true
			}
		}
		return false
	case []string:
		w, ok := want.(string)
		if !ok {
			return false
		}
		for _, item := range list {
			if item == w {
				return true
			}
		}
		return false
	case string:
		w, ok := want.(string)
		return ok && strings.Contains(list, w)
	default:
		return false
	}
}
