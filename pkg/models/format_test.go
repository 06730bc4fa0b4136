package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Commander ")
	require.NoError(t, err)
	assert.Equal(t, Commander, f)

	_, err = ParseFormat("pioneer")
	assert.Error(t, err)
}

func TestFormatJSON(t *testing.T) {
	var d Deck
	require.NoError(t, json.Unmarshal([]byte(`{"format":"pauper"}`), &d))
	assert.Equal(t, Pauper, d.Format)

	err := json.Unmarshal([]byte(`{"format":"brawl"}`), &d)
	assert.Error(t, err)

	b, err := json.Marshal(Deck{Format: Legacy})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"format":"legacy"`)
}

func TestDeckClone(t *testing.T) {
	d := Deck{Entries: []DeckEntry{{Card: Card{ID: "a"}, Quantity: 1}}}
	c := d.Clone()
	c.Entries[0].Quantity = 9

	assert.Equal(t, 1, d.Entries[0].Quantity)
	assert.Equal(t, 1, d.TotalCards())
}
