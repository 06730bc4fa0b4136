package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"deckerr/pkg/models"
)

func TestTotalPrice(t *testing.T) {
	entries := []models.DeckEntry{
		{Card: models.Card{Name: "Lightning Bolt", Prices: map[string]string{"usd": "1.25"}}, Quantity: 4},
		{Card: models.Card{Name: "Island", Prices: map[string]string{"usd": "0.30"}}, Quantity: 20},
		{Card: models.Card{Name: "Opt", Prices: map[string]string{"eur": "0.10"}}, Quantity: 4},
		{Card: models.Card{Name: "Broken", Prices: map[string]string{"usd": "n/a"}}, Quantity: 1},
	}

	assert.Equal(t, 5.0, TotalPrice(entries))
}

func TestRuleFor(t *testing.T) {
	assert.Equal(t, 100, RuleFor(models.Commander).MaxCards)
	assert.Equal(t, 0, RuleFor(models.Standard).MaxCards)
	assert.Equal(t, RuleFor(models.Standard), RuleFor(models.Format(200)))
	for _, f := range models.Formats() {
		_, ok := formatRules[f]
		assert.True(t, ok, "missing rule for %s", f)
	}
}

func TestHeuristics(t *testing.T) {
	assert.True(t, IsLegendaryCreature("Legendary Creature — Elf Druid"))
	assert.False(t, IsLegendaryCreature("Legendary Artifact"))
	assert.True(t, IsBasicLand("Mountain"))
	assert.False(t, IsBasicLand("mountain"))
	p, ok := BasicLandFor("U")
	assert.True(t, ok)
	assert.Equal(t, BasicLandPrint{Name: "Island", Set: "unh"}, p)
}
