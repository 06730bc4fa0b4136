package cards

import (
	"fmt"
	"strings"
)

// Query is the advanced search form. String renders it in Scryfall search
// syntax; empty fields are left out.
type Query struct {
	Name            string   `form:"name" json:"name,omitempty"`
	Text            string   `form:"text" json:"text,omitempty"`
	RulesText       string   `form:"rules_text" json:"rules_text,omitempty"` // "~" stands for the card name
	TypeLine        string   `form:"type" json:"type,omitempty"`
	TypeExact       bool     `form:"type_exact" json:"type_exact,omitempty"`
	TypeExclude     bool     `form:"type_exclude" json:"type_exclude,omitempty"`
	Colors          []string `form:"colors" json:"colors,omitempty"`
	ColorsAtMost    bool     `form:"colors_at_most" json:"colors_at_most,omitempty"`
	Identity        []string `form:"identity" json:"identity,omitempty"`
	ManaCost        string   `form:"mana_cost" json:"mana_cost,omitempty"`
	ManaValue       string   `form:"mana_value" json:"mana_value,omitempty"`
	ManaValueCmp    string   `form:"mana_value_cmp" json:"mana_value_cmp,omitempty"`
	Games           []string `form:"games" json:"games,omitempty"`
	Format          string   `form:"format" json:"format,omitempty"`
	FormatStatus    string   `form:"format_status" json:"format_status,omitempty"` // legal, banned, restricted
	Set             string   `form:"set" json:"set,omitempty"`
	Block           string   `form:"block" json:"block,omitempty"`
	Rarity          []string `form:"rarity" json:"rarity,omitempty"`
	Criteria        string   `form:"criteria" json:"criteria,omitempty"`
	CriteriaExact   bool     `form:"criteria_exact" json:"criteria_exact,omitempty"`
	CriteriaExclude bool     `form:"criteria_exclude" json:"criteria_exclude,omitempty"`
	Price           string   `form:"price" json:"price,omitempty"`
	Currency        string   `form:"currency" json:"currency,omitempty"`
	PriceCmp        string   `form:"price_cmp" json:"price_cmp,omitempty"`
	Artist          string   `form:"artist" json:"artist,omitempty"`
	FlavorText      string   `form:"flavor" json:"flavor,omitempty"`
	Lore            string   `form:"lore" json:"lore,omitempty"`
	Language        string   `form:"lang" json:"lang,omitempty"`
	Order           string   `form:"order" json:"order,omitempty"`
	AllPrints       bool     `form:"all_prints" json:"all_prints,omitempty"`
	IncludeExtras   bool     `form:"include_extras" json:"include_extras,omitempty"`
}

var colorOrder = []string{"W", "U", "B", "R", "G", "C"}

func (q Query) String() string {
	var parts []string
	add := func(format string, args ...any) {
		parts = append(parts, fmt.Sprintf(format, args...))
	}

	if q.Name != "" {
		add("name:%s", q.Name)
	}
	if q.Text != "" {
		add("o:%s", q.Text)
	}
	if q.RulesText != "" {
		add(`o:"%s"`, strings.Replace(q.RulesText, "~", q.Name, 1))
	}
	if q.TypeLine != "" {
		add("%st:%s", negate(q.TypeExclude), quoteIf(q.TypeLine, q.TypeExact))
	}
	if cs := joinColors(q.Colors); cs != "" {
		if q.ColorsAtMost {
			add("color<=%s", cs)
		} else {
			add("c:%s", cs)
		}
	}
	if id := joinColors(q.Identity); id != "" {
		add("id:%s", id)
	}
	if q.ManaCost != "" {
		add("m:%s", q.ManaCost)
	}
	if q.ManaValue != "" {
		add("mv%s%s", orDefault(q.ManaValueCmp, "="), q.ManaValue)
	}
	if len(q.Games) > 0 {
		add("game:%s", strings.Join(q.Games, ","))
	}
	if q.Format != "" {
		add("f:%s", q.Format)
	}
	if q.FormatStatus != "" {
		add("%s:%s", q.FormatStatus, q.Format)
	}
	if q.Set != "" {
		add("e:%s", q.Set)
	}
	if q.Block != "" {
		add("b:%s", q.Block)
	}
	if len(q.Rarity) > 0 {
		add("r:%s", strings.Join(q.Rarity, ","))
	}
	if q.Criteria != "" {
		add("%so:%s", negate(q.CriteriaExclude), quoteIf(q.Criteria, q.CriteriaExact))
	}
	if q.Price != "" {
		add("%s%s%s", orDefault(q.Currency, "usd"), orDefault(q.PriceCmp, "="), q.Price)
	}
	if q.Artist != "" {
		add("a:%s", q.Artist)
	}
	if q.FlavorText != "" {
		add("ft:%s", q.FlavorText)
	}
	if q.Lore != "" {
		add("%s", q.Lore)
	}
	if q.Language != "" {
		add("lang:%s", q.Language)
	}
	if q.Order != "" {
		add("order:%s", q.Order)
	}
	if q.AllPrints {
		add("unique:prints")
	}
	if q.IncludeExtras {
		add("include:extras")
	}
	return strings.Join(parts, " ")
}

// IsZero reports whether no search field is set.
func (q Query) IsZero() bool {
	return q.String() == ""
}

// joinColors keeps WUBRGC order and drops unknown symbols.
func joinColors(in []string) string {
	set := make(map[string]bool, len(in))
	for _, c := range in {
		for _, r := range strings.ToUpper(c) {
			set[string(r)] = true
		}
	}
	var b strings.Builder
	for _, c := range colorOrder {
		if set[c] {
			b.WriteString(c)
		}
	}
	return b.String()
}

func negate(exclude bool) string {
	if exclude {
		return "-"
	}
	return ""
}

func quoteIf(s string, exact bool) string {
	if exact {
		return `"` + s + `"`
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
