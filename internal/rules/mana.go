package rules

import (
	"math"
	"regexp"
	"strings"

	"deckerr/pkg/models"
)

type LandSuggestion struct {
	LandsToAdd   int            `json:"lands_to_add"`
	Distribution map[string]int `json:"distribution"`
}

// Sum of the distribution. Equals LandsToAdd unless rounding drifted by
// more than the single unit the correction removes.
func (s LandSuggestion) Sum() int {
	n := 0
	for _, v := range s.Distribution {
		n += v
	}
	return n
}

// PipCounts returns the number of {W},{U},{B},{R},{G} symbols across all
// entries, each weighted by quantity, and their total.
func PipCounts(entries []models.DeckEntry) (map[string]int, int) {
	counts := make(map[string]int, len(Colors))
	for _, c := range Colors {
		counts[c] = 0
	}
	total := 0
	for _, e := range entries {
		if e.Card.ManaCost == "" {
			continue
		}
		for _, c := range Colors {
			n := strings.Count(e.Card.ManaCost, "{"+c+"}") * e.Quantity
			counts[c] += n
			total += n
		}
	}
	return counts, total
}

// SuggestLands recommends how many basic lands of each color bring the deck
// up to the format minimum, proportional to the colored pips already in it.
func SuggestLands(entries []models.DeckEntry, f models.Format) LandSuggestion {
	rule := RuleFor(f)
	landsToAdd := rule.MinCards - models.TotalCards(entries)
	if landsToAdd < 0 {
		landsToAdd = 0
	}

	counts, total := PipCounts(entries)
	dist := make(map[string]int, len(Colors))
	sum := 0
	for _, c := range Colors {
		proportion := 0.0
		if total > 0 {
			proportion = float64(counts[c]) / float64(total)
		}
		dist[c] = roundHalfUp(float64(landsToAdd) * proportion)
		sum += dist[c]
	}

	// Only a single unit of over-allocation is taken back.
	if sum > landsToAdd {
		maxColor, maxCount := "", 0
		for _, c := range Colors {
			if dist[c] > maxCount {
				maxColor, maxCount = c, dist[c]
			}
		}
		if maxColor != "" {
			dist[maxColor] = maxCount - 1
		}
	}

	return LandSuggestion{LandsToAdd: landsToAdd, Distribution: dist}
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

var symbolRe = regexp.MustCompile(`\{[^{}]+\}`)

// ManaValue approximates a card's mana value by counting its cost symbols;
// {2} counts as one like {W}.
func ManaValue(manaCost string) int {
	if manaCost == "" {
		return 0
	}
	return len(symbolRe.FindAllStringIndex(manaCost, -1))
}

// ManaCurveAverage averages ManaValue over entries, not weighted by
// quantity. An empty list averages to 0.
func ManaCurveAverage(entries []models.DeckEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += ManaValue(e.Card.ManaCost)
	}
	return float64(sum) / float64(len(entries))
}
