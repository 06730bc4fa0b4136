package models

import "time"

// Card is a single printing as returned by the card source. Field names
// follow the Scryfall JSON shape so records can be decoded directly.
type Card struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	ManaCost   string            `json:"mana_cost,omitempty"`
	TypeLine   string            `json:"type_line,omitempty"`
	OracleText string            `json:"oracle_text,omitempty"`
	Colors     []string          `json:"colors,omitempty"`
	Set        string            `json:"set,omitempty"`
	ImageURIs  *ImageURIs        `json:"image_uris,omitempty"`
	Prices     map[string]string `json:"prices,omitempty"`
}

type ImageURIs struct {
	Normal  string `json:"normal,omitempty"`
	ArtCrop string `json:"art_crop,omitempty"`
}

// CachedCard is a card row from the local cache.
type CachedCard struct {
	Card      Card      `json:"card"`
	FetchedAt time.Time `json:"fetched_at"`
}
