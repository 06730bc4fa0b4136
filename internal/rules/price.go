package rules

import (
	"math"
	"strconv"
	"strings"

	"deckerr/pkg/models"
)

// TotalPrice sums the USD price of every copy. Basic lands and cards
// without a parseable price count as zero.
func TotalPrice(entries []models.DeckEntry) float64 {
	total := 0.0
	for _, e := range entries {
		if IsBasicLand(e.Card.Name) {
			continue
		}
		raw := strings.TrimSpace(e.Card.Prices["usd"])
		if raw == "" {
			continue
		}
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		total += p * float64(e.Quantity)
	}
	return math.Round(total*100) / 100
}
