package deck

import (
	"deckerr/internal/rules"
	"deckerr/pkg/models"
)

// Analysis is everything the deck editor shows next to the card list.
type Analysis struct {
	Format        models.Format          `json:"format"`
	TotalCards    int                    `json:"total_cards"`
	LandCards     int                    `json:"land_cards"`
	NonLandCards  int                    `json:"non_land_cards"`
	ManaCurve     float64                `json:"mana_curve_average"`
	TotalPriceUSD float64                `json:"total_price_usd"`
	Validation    rules.ValidationResult `json:"validation"`
	Suggestion    rules.LandSuggestion   `json:"suggestion"`
}

func AnalyzeDeck(d models.Deck) Analysis {
	a := Analysis{
		Format:        d.Format,
		TotalCards:    d.TotalCards(),
		ManaCurve:     rules.ManaCurveAverage(d.Entries),
		TotalPriceUSD: rules.TotalPrice(d.Entries),
		Validation:    rules.Validate(d),
		Suggestion:    rules.SuggestLands(d.Entries, d.Format),
	}
	for _, e := range d.Entries {
		if rules.IsLand(e.Card.TypeLine) {
			a.LandCards += e.Quantity
		}
	}
	a.NonLandCards = a.TotalCards - a.LandCards
	return a
}
