package rules

import (
	"fmt"

	"deckerr/pkg/models"
)

type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Validate checks deck size, per-card copy limits and, for formats that
// need one, commander presence. Errors are reported in that order.
func Validate(d models.Deck) ValidationResult {
	rule := RuleFor(d.Format)
	errs := make([]string, 0)

	total := models.TotalCards(d.Entries)
	if total < rule.MinCards {
		errs = append(errs, fmt.Sprintf("Deck must contain at least %d cards", rule.MinCards))
	}
	if rule.MaxCards > 0 && total > rule.MaxCards {
		errs = append(errs, fmt.Sprintf("Deck must not contain more than %d cards", rule.MaxCards))
	}

	// entries should be unique per card id, but sum anyway
	order := make([]string, 0, len(d.Entries))
	counts := make(map[string]int, len(d.Entries))
	names := make(map[string]string, len(d.Entries))
	for _, e := range d.Entries {
		id := e.Card.ID
		if _, seen := counts[id]; !seen {
			order = append(order, id)
			names[id] = e.Card.Name
		}
		counts[id] += e.Quantity
	}
	for _, id := range order {
		if IsBasicLand(names[id]) {
			continue
		}
		if counts[id] > rule.MaxCopies {
			errs = append(errs, fmt.Sprintf("%s has too many copies (max %d)", id, rule.MaxCopies))
		}
	}

	if rule.RequiresCommander && !hasCommander(d.Entries) {
		errs = append(errs, "Deck must have a legendary creature as commander")
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func hasCommander(entries []models.DeckEntry) bool {
	for _, e := range entries {
		if IsLegendaryCreature(e.Card.TypeLine) {
			return true
		}
	}
	return false
}
