// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package leveling

import "testing"

func TestLevelForXP_LowLevels(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{-5, 1},
		{5, 1}, // base 5 XP message stays level 1: XPForLevel(2)=100
		{99, 1},
		{100, 2}, // exact boundary
		{101, 2},
		{282, 2}, // XPForLevel(3) = round(100*2^1.5) = 283
		{283, 3},
	}

	for _, tt := range tests {
		if got := c.LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestXPForLevel_Monotonic(t *testing.T) {
	c := NewCalculator()

	prev := c.XPForLevel(1)
	for level := 2; level <= 300; level++ {
		cur := c.XPForLevel(level)
		if cur <= prev {
			t.Fatalf("XPForLevel not strictly increasing at level %d: %d <= %d", level, cur, prev)
		}
		prev = cur
	}
}

// TestLevelForXP_InvertsXPForLevel pins the round-trip invariant
// XPForLevel(LevelForXP(xp)) <= xp < XPForLevel(LevelForXP(xp)+1)
// across both curve regimes, including every tier boundary.
func TestLevelForXP_InvertsXPForLevel(t *testing.T) {
	c := NewCalculator()

	// Every level's exact threshold, plus one below and one above. Covers
	// the standard curve, the tier break at 105, and both later tiers.
	for level := 2; level <= 260; level++ {
		threshold := c.XPForLevel(level)
		for _, xp := range []int{threshold - 1, threshold, threshold + 1} {
			got := c.LevelForXP(xp)
			if c.XPForLevel(got) > xp {
				t.Fatalf("xp=%d: XPForLevel(%d)=%d exceeds xp", xp, got, c.XPForLevel(got))
			}
			if c.XPForLevel(got+1) <= xp {
				t.Fatalf("xp=%d: next level threshold %d not above xp", xp, c.XPForLevel(got+1))
			}
		}
		if got := c.LevelForXP(threshold); got != level {
			t.Fatalf("LevelForXP(%d) = %d, want %d (exact boundary)", threshold, got, level)
		}
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	c := NewCalculator()

	prev := 1
	for xp := 0; xp < 50000; xp += 37 {
		level := c.LevelForXP(xp)
		if level < prev {
			t.Fatalf("LevelForXP decreased at xp=%d: %d < %d", xp, level, prev)
		}
		prev = level
	}
}

func TestTieredScaling_MarginalCostsGrow(t *testing.T) {
	c := NewCalculator()

	// The marginal cost of the first scaled level is 1.5x the standard
	// marginal cost, so crossing the tier break must cost strictly more
	// than the standard curve predicts.
	std := NewCustomCalculator(DefaultBase, DefaultExponent, nil)

	if c.XPForLevel(tierBreakLevel) != std.XPForLevel(tierBreakLevel) {
		t.Errorf("standard regime diverged at level %d: %d != %d",
			tierBreakLevel, c.XPForLevel(tierBreakLevel), std.XPForLevel(tierBreakLevel))
	}

	tieredCost := c.XPForLevel(tierBreakLevel+1) - c.XPForLevel(tierBreakLevel)
	stdCost := std.XPForLevel(tierBreakLevel+1) - std.XPForLevel(tierBreakLevel)
	if tieredCost <= stdCost {
		t.Errorf("tiered marginal cost %d not above standard %d", tieredCost, stdCost)
	}

	// Ratio should be the first tier multiplier, within rounding.
	ratio := float64(tieredCost) / float64(stdCost)
	if ratio < 1.45 || ratio > 1.55 {
		t.Errorf("first tier ratio = %.3f, want ~1.5", ratio)
	}
}

func TestProgress_Clamped(t *testing.T) {
	c := NewCalculator()

	if got := c.Progress(0); got != 0 {
		t.Errorf("Progress(0) = %.2f, want 0", got)
	}
	for _, xp := range []int{0, 50, 100, 99999, 1 << 30} {
		p := c.Progress(xp)
		if p < 0 || p > 100 {
			t.Errorf("Progress(%d) = %.2f out of [0,100]", xp, p)
		}
	}

	// Exactly at a threshold, progress restarts at 0.
	if got := c.Progress(c.XPForLevel(10)); got != 0 {
		t.Errorf("Progress at level-10 threshold = %.2f, want 0", got)
	}
}

func TestXPToNext(t *testing.T) {
	c := NewCalculator()

	if got := c.XPToNext(0); got != 100 {
		t.Errorf("XPToNext(0) = %d, want 100", got)
	}
	if got := c.XPToNext(40); got != 60 {
		t.Errorf("XPToNext(40) = %d, want 60", got)
	}
}

func TestTitleForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, "Newcomer"},
		{4, "Newcomer"},
		{5, "Regular"},
		{105, "Mythic"},
		{500, "Eternal"},
	}
	for _, tt := range tests {
		if got := TitleForLevel(tt.level); got != tt.want {
			t.Errorf("TitleForLevel(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
