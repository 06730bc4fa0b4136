package models

import "time"

type DeckEntry struct {
	Card     Card `json:"card"`
	Quantity int  `json:"quantity"`
}

type Deck struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Format      Format      `json:"format"`
	Entries     []DeckEntry `json:"cards"`
	CommanderID string      `json:"commander_id,omitempty"`
	UserID      string      `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TotalCards sums the quantities of every entry.
func (d Deck) TotalCards() int {
	return TotalCards(d.Entries)
}

func TotalCards(entries []DeckEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Quantity
	}
	return n
}

// Clone returns a copy whose entry slice can be mutated without touching d.
func (d Deck) Clone() Deck {
	out := d
	out.Entries = append([]DeckEntry(nil), d.Entries...)
	return out
}
