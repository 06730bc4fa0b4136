// Package rules evaluates deck legality and recommends a mana base. Every
// function here is pure: it reads a deck snapshot and returns a freshly
// allocated result, so callers may invoke it concurrently.
package rules

import "deckerr/pkg/models"

// FormatRule holds the static construction limits of a format.
// MaxCards of 0 means the format has no upper bound.
type FormatRule struct {
	MinCards          int     `json:"min_cards"`
	MaxCards          int     `json:"max_cards,omitempty"`
	MaxCopies         int     `json:"max_copies"`
	RequiresCommander bool    `json:"requires_commander"`
	TargetLandCount   float64 `json:"target_land_count"`
}

var formatRules = map[models.Format]FormatRule{
	models.Standard:  {MinCards: 60, MaxCopies: 4, TargetLandCount: 24.5},
	models.Modern:    {MinCards: 60, MaxCopies: 4, TargetLandCount: 24.5},
	models.Commander: {MinCards: 100, MaxCards: 100, MaxCopies: 1, RequiresCommander: true, TargetLandCount: 36.5},
	models.Legacy:    {MinCards: 60, MaxCopies: 4, TargetLandCount: 24.5},
	models.Vintage:   {MinCards: 60, MaxCopies: 4, TargetLandCount: 24.5},
	models.Pauper:    {MinCards: 60, MaxCopies: 4, TargetLandCount: 24.5},
}

// RuleFor returns the rule of f. A value outside the declared formats
// falls back to the standard rule.
func RuleFor(f models.Format) FormatRule {
	if r, ok := formatRules[f]; ok {
		return r
	}
	return formatRules[models.Standard]
}
