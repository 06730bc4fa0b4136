package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckerr/pkg/models"
)

func card(id, typeLine, cost string) models.Card {
	return models.Card{ID: id, Name: id, TypeLine: typeLine, ManaCost: cost}
}

// fillers returns n distinct single-copy creatures.
func fillers(n int) []models.DeckEntry {
	out := make([]models.DeckEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.DeckEntry{
			Card:     card(fmt.Sprintf("filler-%03d", i), "Creature — Bear", "{1}{G}"),
			Quantity: 1,
		})
	}
	return out
}

func TestValidate_StandardTooSmall(t *testing.T) {
	d := models.Deck{Format: models.Standard, Entries: fillers(59)}

	res := Validate(d)

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Deck must contain at least 60 cards"}, res.Errors)
}

func TestValidate_CommanderMissingLegend(t *testing.T) {
	d := models.Deck{Format: models.Commander, Entries: fillers(100)}

	res := Validate(d)

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Deck must have a legendary creature as commander"}, res.Errors)
}

func TestValidate_CommanderWithLegend(t *testing.T) {
	entries := fillers(99)
	entries = append(entries, models.DeckEntry{
		Card:     card("Atraxa", "Legendary Creature — Phyrexian Angel Horror", "{G}{W}{U}{B}"),
		Quantity: 1,
	})

	res := Validate(models.Deck{Format: models.Commander, Entries: entries})

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestValidate_CommanderTooLarge(t *testing.T) {
	entries := fillers(100)
	entries = append(entries, models.DeckEntry{
		Card:     card("Atraxa", "LEGENDARY CREATURE — Angel", ""),
		Quantity: 1,
	})

	res := Validate(models.Deck{Format: models.Commander, Entries: entries})

	assert.Equal(t, []string{"Deck must not contain more than 100 cards"}, res.Errors)
}

func TestValidate_TooManyCopies(t *testing.T) {
	entries := fillers(55)
	entries = append(entries, models.DeckEntry{
		Card:     card("Lightning Bolt", "Instant", "{R}"),
		Quantity: 5,
	})

	res := Validate(models.Deck{Format: models.Standard, Entries: entries})

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Lightning Bolt has too many copies (max 4)"}, res.Errors)
}

func TestValidate_MessageUsesCardID(t *testing.T) {
	entries := fillers(55)
	entries = append(entries, models.DeckEntry{
		Card:     models.Card{ID: "e3285e6b", Name: "Lightning Bolt", TypeLine: "Instant"},
		Quantity: 5,
	})

	res := Validate(models.Deck{Format: models.Modern, Entries: entries})

	assert.Equal(t, []string{"e3285e6b has too many copies (max 4)"}, res.Errors)
}

func TestValidate_BasicLandsUnlimited(t *testing.T) {
	entries := fillers(40)
	entries = append(entries, models.DeckEntry{
		Card:     models.Card{ID: "plains-unh", Name: "Plains", TypeLine: "Basic Land — Plains"},
		Quantity: 20,
	})

	res := Validate(models.Deck{Format: models.Standard, Entries: entries})

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestValidate_BasicLandsExemptInEveryFormat(t *testing.T) {
	for _, f := range models.Formats() {
		for _, name := range []string{"Plains", "Island", "Swamp", "Mountain", "Forest"} {
			d := models.Deck{Format: f, Entries: []models.DeckEntry{
				{Card: models.Card{ID: name + "-id", Name: name, TypeLine: "Basic Land"}, Quantity: 30},
			}}
			for _, msg := range Validate(d).Errors {
				assert.NotContains(t, msg, "too many copies", "format=%s land=%s", f, name)
			}
		}
	}
}

func TestValidate_SnowBasicIsNotExempt(t *testing.T) {
	entries := fillers(50)
	entries = append(entries, models.DeckEntry{
		Card:     models.Card{ID: "snow-forest", Name: "Snow-Covered Forest", TypeLine: "Basic Snow Land — Forest"},
		Quantity: 10,
	})

	res := Validate(models.Deck{Format: models.Standard, Entries: entries})

	assert.Equal(t, []string{"snow-forest has too many copies (max 4)"}, res.Errors)
}

func TestValidate_DuplicateEntriesAreSummed(t *testing.T) {
	entries := fillers(54)
	bolt := card("bolt", "Instant", "{R}")
	entries = append(entries,
		models.DeckEntry{Card: bolt, Quantity: 3},
		models.DeckEntry{Card: bolt, Quantity: 3},
	)

	res := Validate(models.Deck{Format: models.Standard, Entries: entries})

	assert.Equal(t, []string{"bolt has too many copies (max 4)"}, res.Errors)
}

func TestValidate_ErrorOrder(t *testing.T) {
	entries := []models.DeckEntry{
		{Card: card("b-second", "Creature", "{B}"), Quantity: 2},
		{Card: card("a-first", "Creature", "{W}"), Quantity: 3},
	}

	res := Validate(models.Deck{Format: models.Commander, Entries: entries})

	require.False(t, res.IsValid)
	assert.Equal(t, []string{
		"Deck must contain at least 100 cards",
		"b-second has too many copies (max 1)",
		"a-first has too many copies (max 1)",
		"Deck must have a legendary creature as commander",
	}, res.Errors)
}

func TestValidate_ValidDeckHasEmptyErrorSlice(t *testing.T) {
	entries := fillers(60)
	res := Validate(models.Deck{Format: models.Pauper, Entries: entries})

	assert.True(t, res.IsValid)
	assert.NotNil(t, res.Errors)
}

func TestValidate_Idempotent(t *testing.T) {
	entries := fillers(30)
	entries = append(entries, models.DeckEntry{Card: card("x", "Sorcery", "{U}"), Quantity: 7})
	d := models.Deck{Format: models.Legacy, Entries: entries}

	assert.Equal(t, Validate(d), Validate(d))
}
