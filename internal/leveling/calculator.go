// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package leveling implements the XP-to-level conversion with tiered
// high-level scaling. All functions are pure; the calculator carries only
// immutable curve parameters.
//
// The standard curve maps XP to level as floor((xp/base)^(1/exponent))+1 up
// to the tier break. Above it, each scaling tier multiplies the marginal
// standard-curve cost of its levels by a fixed factor. Level lookup inverts
// the piecewise sum exactly, including at tier boundaries.
package leveling

import "math"

// ScalingTier scales the marginal XP cost of every level at or above
// StartLevel, until the next tier begins. The last tier is unbounded.
type ScalingTier struct {
	StartLevel int
	Multiplier float64
}

// Calculator converts between XP totals and levels.
type Calculator struct {
	base     float64
	exponent float64
	tiers    []ScalingTier
}

// Default curve parameters.
const (
	DefaultBase     = 100.0
	DefaultExponent = 1.5

	// tierBreakLevel is the last level priced purely by the standard curve.
	tierBreakLevel = 105
)

// defaultTiers are the high-level scaling tiers, ascending by threshold.
// The boundary behavior is intentional; do not re-derive an "equivalent"
// closed form, it diverges at high levels.
var defaultTiers = []ScalingTier{
	{StartLevel: tierBreakLevel + 1, Multiplier: 1.5},
	{StartLevel: 151, Multiplier: 2.5},
	{StartLevel: 201, Multiplier: 4.0},
}

// NewCalculator returns a calculator with the production curve.
func NewCalculator() *Calculator {
	return &Calculator{
		base:     DefaultBase,
		exponent: DefaultExponent,
		tiers:    defaultTiers,
	}
}

// NewCustomCalculator returns a calculator with explicit parameters. Tiers
// must be sorted ascending by StartLevel; an empty slice disables tiered
// scaling entirely.
func NewCustomCalculator(base, exponent float64, tiers []ScalingTier) *Calculator {
	return &Calculator{base: base, exponent: exponent, tiers: tiers}
}

// standardXP is the cumulative standard-curve cost of reaching level.
func (c *Calculator) standardXP(level int) float64 {
	if level <= 1 {
		return 0
	}
	return c.base * math.Pow(float64(level-1), c.exponent)
}

// tierMultiplier returns the marginal-cost multiplier for the given level.
func (c *Calculator) tierMultiplier(level int) float64 {
	mult := 1.0
	for _, t := range c.tiers {
		if level >= t.StartLevel {
			mult = t.Multiplier
		}
	}
	return mult
}

// firstTierLevel is the lowest level with scaled marginal cost, or 0 when
// no tiers are configured.
func (c *Calculator) firstTierLevel() int {
	if len(c.tiers) == 0 {
		return 0
	}
	return c.tiers[0].StartLevel
}

// XPForLevel returns the cumulative XP required to reach the given level.
// Level 1 costs nothing.
func (c *Calculator) XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}

	first := c.firstTierLevel()
	if first == 0 || level < first {
		return int(math.Round(c.standardXP(level)))
	}

	// Standard cost up to the last unscaled level, then scaled marginal
	// costs level by level. The sum is accumulated in float64 and rounded
	// once so boundary levels match the standard curve exactly.
	xp := c.standardXP(first - 1)
	for l := first; l <= level; l++ {
		marginal := c.standardXP(l) - c.standardXP(l-1)
		xp += marginal * c.tierMultiplier(l)
	}
	return int(math.Round(xp))
}

// LevelForXP returns the level for a cumulative XP total. Minimum level is 1.
// The result is the exact inverse of XPForLevel:
//
//	XPForLevel(LevelForXP(xp)) <= xp < XPForLevel(LevelForXP(xp)+1)
func (c *Calculator) LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}

	// Analytic guess from the standard curve, then exact adjustment. The
	// guess is only a starting point; float error near boundaries is
	// corrected by the loops below.
	level := int(math.Floor(math.Pow(float64(xp)/c.base, 1/c.exponent))) + 1
	first := c.firstTierLevel()
	if first > 0 && level > first {
		level = first
	}
	if level < 1 {
		level = 1
	}

	for c.XPForLevel(level+1) <= xp {
		level++
	}
	for level > 1 && c.XPForLevel(level) > xp {
		level--
	}
	return level
}

// Progress returns the percentage progress from the current level to the
// next, clamped to [0,100].
func (c *Calculator) Progress(xp int) float64 {
	level := c.LevelForXP(xp)
	cur := c.XPForLevel(level)
	next := c.XPForLevel(level + 1)
	if next <= cur {
		return 100
	}

	pct := float64(xp-cur) / float64(next-cur) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// XPToNext returns the XP remaining until the next level.
func (c *Calculator) XPToNext(xp int) int {
	next := c.XPForLevel(c.LevelForXP(xp) + 1)
	if remaining := next - xp; remaining > 0 {
		return remaining
	}
	return 0
}
