// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package leveling

// levelTitles maps level thresholds to display titles, ascending.
var levelTitles = []struct {
	minLevel int
	title    string
}{
	{1, "Newcomer"},
	{5, "Regular"},
	{10, "Chatter"},
	{20, "Devotee"},
	{35, "Veteran"},
	{50, "Elder"},
	{75, "Sage"},
	{105, "Mythic"},
	{150, "Ascendant"},
	{200, "Eternal"},
}

// TitleForLevel returns the display title for a level. Titles appear in
// level-up events and the leaderboard.
func TitleForLevel(level int) string {
	title := levelTitles[0].title
	for _, t := range levelTitles {
		if level >= t.minLevel {
			title = t.title
		}
	}
	return title
}
