package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"deckerr/pkg/models"
)

// spells returns n single-copy spells that all share cost.
func spells(prefix string, n int, cost string) []models.DeckEntry {
	out := make([]models.DeckEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.DeckEntry{
			Card:     models.Card{ID: fmt.Sprintf("%s-%d", prefix, i), Name: prefix, TypeLine: "Instant", ManaCost: cost},
			Quantity: 1,
		})
	}
	return out
}

func TestSuggestLands_EvenSplit(t *testing.T) {
	entries := append(spells("w", 10, "{1}{W}"), spells("u", 10, "{2}{U}")...)
	entries = append(entries, spells("c", 20, "{3}")...)

	s := SuggestLands(entries, models.Standard)

	assert.Equal(t, 20, s.LandsToAdd)
	assert.Equal(t, map[string]int{"W": 10, "U": 10, "B": 0, "R": 0, "G": 0}, s.Distribution)
	assert.Equal(t, 20, s.Sum())
}

func TestSuggestLands_OverAllocationCorrected(t *testing.T) {
	// 20/3 rounds to 7 for each color, summing to 21.
	entries := append(spells("w", 10, "{W}"), spells("u", 10, "{U}")...)
	entries = append(entries, spells("b", 10, "{B}")...)
	entries = append(entries, spells("c", 10, "{1}")...)

	s := SuggestLands(entries, models.Modern)

	assert.Equal(t, 20, s.LandsToAdd)
	assert.Equal(t, map[string]int{"W": 6, "U": 7, "B": 7, "R": 0, "G": 0}, s.Distribution)
	assert.Equal(t, 20, s.Sum())
}

func TestSuggestLands_LargestColorDecremented(t *testing.T) {
	// 3 lands over W:1 U:1 -> 1.5, 1.5 -> 2,2 = 4, W gives the unit back.
	entries := append(spells("w", 1, "{W}"), spells("u", 1, "{U}")...)
	entries = append(entries, spells("c", 55, "{2}")...)

	s := SuggestLands(entries, models.Standard)

	assert.Equal(t, 3, s.LandsToAdd)
	assert.Equal(t, map[string]int{"W": 1, "U": 2, "B": 0, "R": 0, "G": 0}, s.Distribution)
}

// The correction removes exactly one unit; larger drift is left in place.
func TestSuggestLands_OneShotCorrectionBoundary(t *testing.T) {
	// 3 lands over five equal colors: 0.6 -> 1 each = 5, one unit removed -> 4.
	entries := spells("w", 1, "{W}{U}{B}{R}{G}")
	entries = append(entries, spells("c", 56, "{1}")...)

	s := SuggestLands(entries, models.Standard)

	assert.Equal(t, 3, s.LandsToAdd)
	assert.Equal(t, map[string]int{"W": 0, "U": 1, "B": 1, "R": 1, "G": 1}, s.Distribution)
	assert.Equal(t, 4, s.Sum())
}

func TestSuggestLands_UnderAllocationKept(t *testing.T) {
	// 10 lands over W:1 U:1 B:1 -> 3.33 each -> 3,3,3 = 9.
	entries := append(spells("w", 1, "{W}"), spells("u", 1, "{U}")...)
	entries = append(entries, spells("b", 1, "{B}")...)
	entries = append(entries, spells("c", 47, "{1}")...)

	s := SuggestLands(entries, models.Standard)

	assert.Equal(t, 10, s.LandsToAdd)
	assert.Equal(t, 9, s.Sum())
}

func TestSuggestLands_CompleteDeckAddsNothing(t *testing.T) {
	entries := spells("r", 61, "{R}")

	s := SuggestLands(entries, models.Standard)

	assert.Equal(t, 0, s.LandsToAdd)
	assert.Equal(t, 0, s.Sum())
	assert.Len(t, s.Distribution, 5)
}

func TestSuggestLands_NoPips(t *testing.T) {
	s := SuggestLands(spells("art", 10, "{4}"), models.Standard)

	assert.Equal(t, 50, s.LandsToAdd)
	assert.Equal(t, map[string]int{"W": 0, "U": 0, "B": 0, "R": 0, "G": 0}, s.Distribution)
}

func TestSuggestLands_QuantityWeighted(t *testing.T) {
	entries := []models.DeckEntry{
		{Card: models.Card{ID: "g", ManaCost: "{G}{G}"}, Quantity: 4},
		{Card: models.Card{ID: "r", ManaCost: "{R}"}, Quantity: 4},
		{Card: models.Card{ID: "forest", Name: "Forest", TypeLine: "Basic Land — Forest"}, Quantity: 10},
	}

	counts, total := PipCounts(entries)
	assert.Equal(t, 8, counts["G"])
	assert.Equal(t, 4, counts["R"])
	assert.Equal(t, 12, total)

	s := SuggestLands(entries, models.Commander)
	assert.Equal(t, 82, s.LandsToAdd)
	// 82*2/3 = 54.67 -> 55, 82/3 = 27.33 -> 27
	assert.Equal(t, 55, s.Distribution["G"])
	assert.Equal(t, 27, s.Distribution["R"])
}

func TestSuggestLands_UnknownFormatFallsBack(t *testing.T) {
	entries := spells("w", 10, "{W}")

	assert.Equal(t, SuggestLands(entries, models.Standard), SuggestLands(entries, models.Format(42)))
}

func TestSuggestLands_Idempotent(t *testing.T) {
	entries := append(spells("w", 7, "{W}{W}"), spells("b", 9, "{B}")...)

	assert.Equal(t, SuggestLands(entries, models.Vintage), SuggestLands(entries, models.Vintage))
}

func TestManaCurveAverage(t *testing.T) {
	entries := []models.DeckEntry{
		{Card: models.Card{ManaCost: "{2}{W}{W}"}, Quantity: 4},
		{Card: models.Card{ManaCost: "{R}"}, Quantity: 1},
		{Card: models.Card{Name: "Forest"}, Quantity: 20},
		{Card: models.Card{ManaCost: "{X}{U/P}{10}"}, Quantity: 1},
	}

	// (3 + 1 + 0 + 3) / 4, quantities ignored
	assert.InDelta(t, 1.75, ManaCurveAverage(entries), 1e-9)
	assert.Equal(t, 0.0, ManaCurveAverage(nil))
}

func TestManaValue(t *testing.T) {
	assert.Equal(t, 0, ManaValue(""))
	assert.Equal(t, 1, ManaValue("{G}"))
	assert.Equal(t, 4, ManaValue("{W}{U}{B}{2}"))
}
