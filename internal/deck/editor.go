// Package deck holds deck editing, persistence and the HTTP surface for
// saved decks. Editor functions work on a snapshot and return a new deck;
// the input is never mutated.
package deck

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"deckerr/internal/rules"
	"deckerr/pkg/models"
)

const (
	// MaxCopiesPerAdd caps how many copies of a non-basic card the editor
	// will accumulate through AddCard, AddCopies and MergeEntries.
	MaxCopiesPerAdd = 4

	// MaxQuantity bounds any single entry, basics included.
	MaxQuantity = 100
)

func validQuantity(q int) bool {
	return q >= 1 && q <= MaxQuantity
}

func indexOf(d models.Deck, cardID string) int {
	for i, e := range d.Entries {
		if e.Card.ID == cardID {
			return i
		}
	}
	return -1
}

func capFor(c models.Card) int {
	if rules.IsBasicLand(c.Name) {
		return MaxQuantity
	}
	return MaxCopiesPerAdd
}

// AddCard adds one copy of c. A card already at its cap is left unchanged.
func AddCard(d models.Deck, c models.Card) models.Deck {
	return AddCopies(d, c, 1)
}

// AddCopies adds n copies of c in one step, stopping at the card's cap.
// Non-positive n returns an unchanged copy.
func AddCopies(d models.Deck, c models.Card, n int) models.Deck {
	out := d.Clone()
	addCopies(&out, c, n)
	return out
}

// addCopies mutates d in place. An entry already above the cap keeps its
// quantity.
func addCopies(d *models.Deck, c models.Card, n int) {
	if n <= 0 {
		return
	}
	limit := capFor(c)
	i := indexOf(*d, c.ID)
	if i < 0 {
		d.Entries = append(d.Entries, models.DeckEntry{Card: c, Quantity: min(n, limit)})
		return
	}
	if q := d.Entries[i].Quantity; q < limit {
		d.Entries[i].Quantity = min(q+n, limit)
	}
}

// RemoveCard drops the entry for cardID and clears the commander if it was
// that card.
func RemoveCard(d models.Deck, cardID string) (models.Deck, error) {
	i := indexOf(d, cardID)
	if i < 0 {
		return d, fmt.Errorf("remove %s: %w", cardID, ErrUnknownCard)
	}
	out := d.Clone()
	out.Entries = append(out.Entries[:i], out.Entries[i+1:]...)
	if out.CommanderID == cardID {
		out.CommanderID = ""
	}
	return out, nil
}

// SetQuantity overwrites the quantity of an existing entry. Format copy
// limits are not applied here; the validator reports them.
func SetQuantity(d models.Deck, cardID string, q int) (models.Deck, error) {
	if !validQuantity(q) {
		return d, ErrInvalidQuantity
	}
	i := indexOf(d, cardID)
	if i < 0 {
		return d, fmt.Errorf("set quantity of %s: %w", cardID, ErrUnknownCard)
	}
	out := d.Clone()
	out.Entries[i].Quantity = q
	return out, nil
}

// SetCommander marks cardID as the commander. An empty id clears it.
func SetCommander(d models.Deck, cardID string) (models.Deck, error) {
	out := d.Clone()
	if cardID == "" {
		out.CommanderID = ""
		return out, nil
	}
	i := indexOf(d, cardID)
	if i < 0 || !rules.IsLegendaryCreature(d.Entries[i].Card.TypeLine) {
		return d, ErrNotCommander
	}
	out.CommanderID = cardID
	return out, nil
}

// DecklistLine is one parsed "N Card Name" line.
type DecklistLine struct {
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// ParseDecklist reads "N Card Name" lines. Lines without a positive leading
// quantity or a name are skipped.
func ParseDecklist(text string) []DecklistLine {
	var out []DecklistLine
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		qty, name, ok := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(qty)
		name = strings.TrimSpace(name)
		if err != nil || n <= 0 || name == "" {
			continue
		}
		out = append(out, DecklistLine{Quantity: n, Name: name})
	}
	return out
}

// MergeEntries adds imported entries to d. Quantities for a card already in
// the deck are summed; non-basic totals are capped at MaxCopiesPerAdd and
// basics at MaxQuantity.
func MergeEntries(d models.Deck, entries []models.DeckEntry) models.Deck {
	out := d.Clone()
	for _, e := range entries {
		addCopies(&out, e.Card, e.Quantity)
	}
	return out
}

// ExportDecklist renders d in the format ParseDecklist reads.
func ExportDecklist(d models.Deck) string {
	var b strings.Builder
	for _, e := range d.Entries {
		fmt.Fprintf(&b, "%d %s\n", e.Quantity, e.Card.Name)
	}
	return b.String()
}
