// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package achievements implements the declarative achievement engine.
// Rules are data, not code: every definition carries a {field, operator,
// value} rule evaluated against the user record and a per-user derived
// stats cache. The catalog is embedded and immutable at runtime.
package achievements

import (
	"fmt"
	"sort"

	_ "embed"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chatforge/internal/models"
)

//go:embed catalog.json
var catalogJSON []byte

// catalogFile is the on-disk catalog shape.
type catalogFile struct {
	Achievements map[string]models.AchievementDefinition `json:"achievements"`
}

// validOperators is the closed operator set rules may use.
var validOperators = map[models.RuleOperator]bool{
	models.OpGTE:      true,
	models.OpLTE:      true,
	models.OpGT:       true,
	models.OpLT:       true,
	models.OpEQ:       true,
	models.OpNEQ:      true,
	models.OpIncludes: true,
}

// validRarities guards against catalog typos.
var validRarities = map[models.Rarity]bool{
	models.RarityCommon:    true,
	models.RarityUncommon:  true,
	models.RarityRare:      true,
	models.RarityEpic:      true,
	models.RarityLegendary: true,
}

// LoadCatalog parses and validates the embedded catalog. Definitions are
// returned sorted by ID for deterministic evaluation order.
func LoadCatalog() ([]models.AchievementDefinition, error) {
	return parseCatalog(catalogJSON)
}

func parseCatalog(data []byte) ([]models.AchievementDefinition, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse achievement catalog: %w", err)
	}

	defs := make([]models.AchievementDefinition, 0, len(file.Achievements))
	for id, def := range file.Achievements {
		def.ID = id
		if err := validateDefinition(&def); err != nil {
			return nil, fmt.Errorf("achievement %q: %w", id, err)
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

func validateDefinition(def *models.AchievementDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("missing name")
	}
	if !validRarities[def.Rarity] {
		return fmt.Errorf("unknown rarity %q", def.Rarity)
	}
	if !validOperators[def.Rule.Operator] {
		return fmt.Errorf("unknown operator %q", def.Rule.Operator)
	}
	if _, ok := resolveAccessor(def.Rule.Field); !ok {
		return fmt.Errorf("unknown rule field %q", def.Rule.Field)
	}
	if def.Rule.Value == nil {
		return fmt.Errorf("missing rule value")
	}
	return nil
}
