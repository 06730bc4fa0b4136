package deck

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"deckerr/internal/cards"
	"deckerr/internal/rules"
	"deckerr/internal/sync"
	"deckerr/pkg/models"
)

// Publisher receives deck change events. *sync.Hub satisfies it.
type Publisher interface {
	Publish(ev sync.DeckEvent)
}

type Service struct {
	Repo   *Repo
	Cards  cards.Source
	Events Publisher

	now func() time.Time
}

func NewService(repo *Repo, source cards.Source, events Publisher) *Service {
	return &Service{Repo: repo, Cards: source, Events: events, now: time.Now}
}

// EntryInput references a card by id in create and replace requests.
type EntryInput struct {
	CardID   string `json:"card_id"`
	Quantity int    `json:"quantity"`
}

// DeckInput is a wholesale deck body. Strict rejects illegal decks instead
// of saving them.
type DeckInput struct {
	Name        string        `json:"name"`
	Format      models.Format `json:"format"`
	Cards       []EntryInput  `json:"cards"`
	CommanderID string        `json:"commander_id,omitempty"`
	Strict      bool          `json:"-"`
}

// Saved is a stored deck together with its validation at save time.
type Saved struct {
	Deck       models.Deck            `json:"deck"`
	Validation rules.ValidationResult `json:"validation"`
}

// Summary is the list view of a deck.
type Summary struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Format     models.Format `json:"format"`
	TotalCards int           `json:"total_cards"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ImportReport lists the decklist lines that could not be resolved.
type ImportReport struct {
	Added   int      `json:"added"`
	Missing []string `json:"missing"`
}

func (s *Service) Create(ctx context.Context, userID string, in DeckInput) (*Saved, error) {
	now := s.clock()
	d := models.Deck{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
	}
	d, err := s.apply(ctx, d, in)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, d, in.Strict)
}

func (s *Service) Get(ctx context.Context, userID, deckID string) (*models.Deck, error) {
	d, err := s.load(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	s.hydrate(ctx, d)
	return d, nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Summary, int, error) {
	decks, total, err := s.Repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Summary, 0, len(decks))
	for _, d := range decks {
		out = append(out, Summary{
			ID:         d.ID,
			Name:       d.Name,
			Format:     d.Format,
			TotalCards: d.TotalCards(),
			UpdatedAt:  d.UpdatedAt,
		})
	}
	return out, total, nil
}

// Replace overwrites name, format, entries and commander of an owned deck.
func (s *Service) Replace(ctx context.Context, userID, deckID string, in DeckInput) (*Saved, error) {
	d, err := s.load(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	next, err := s.apply(ctx, *d, in)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, next, in.Strict)
}

func (s *Service) Delete(ctx context.Context, userID, deckID string) error {
	if _, err := s.load(ctx, userID, deckID); err != nil {
		return err
	}
	ok, err := s.Repo.Delete(ctx, deckID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.publish(sync.DeckEvent{Type: sync.DeckDeleted, UserID: userID, DeckID: deckID, At: s.clock()})
	return nil
}

// AddCard adds n copies of a card, stopping at the per-add cap.
func (s *Service) AddCard(ctx context.Context, userID, deckID, cardID string, n int) (*Saved, error) {
	if !validQuantity(n) {
		return nil, ErrInvalidQuantity
	}
	d, err := s.Get(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	found, err := s.Cards.GetByIDs(ctx, []string{cardID})
	if err != nil {
		return nil, fmt.Errorf("resolve card: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("card %s: %w", cardID, ErrUnknownCard)
	}

	return s.save(ctx, AddCopies(*d, found[0], n), false)
}

func (s *Service) RemoveCard(ctx context.Context, userID, deckID, cardID string) (*Saved, error) {
	return s.edit(ctx, userID, deckID, func(d models.Deck) (models.Deck, error) {
		return RemoveCard(d, cardID)
	})
}

func (s *Service) SetQuantity(ctx context.Context, userID, deckID, cardID string, q int) (*Saved, error) {
	return s.edit(ctx, userID, deckID, func(d models.Deck) (models.Deck, error) {
		return SetQuantity(d, cardID, q)
	})
}

func (s *Service) SetCommander(ctx context.Context, userID, deckID, cardID string) (*Saved, error) {
	return s.edit(ctx, userID, deckID, func(d models.Deck) (models.Deck, error) {
		return SetCommander(d, cardID)
	})
}

// Import resolves each decklist line with a name search, takes the first
// hit and merges the result into the deck.
func (s *Service) Import(ctx context.Context, userID, deckID, text string) (*Saved, *ImportReport, error) {
	d, err := s.Get(ctx, userID, deckID)
	if err != nil {
		return nil, nil, err
	}

	report := &ImportReport{Missing: []string{}}
	var entries []models.DeckEntry
	for _, line := range ParseDecklist(text) {
		found, err := s.Cards.Search(ctx, line.Name)
		if err != nil {
			log.Printf("[deck] import search %q failed: %v", line.Name, err)
			report.Missing = append(report.Missing, line.Name)
			continue
		}
		if len(found) == 0 {
			report.Missing = append(report.Missing, line.Name)
			continue
		}
		entries = append(entries, models.DeckEntry{Card: found[0], Quantity: line.Quantity})
	}

	merged := MergeEntries(*d, entries)
	report.Added = merged.TotalCards() - d.TotalCards()

	saved, err := s.save(ctx, merged, false)
	if err != nil {
		return nil, nil, err
	}
	return saved, report, nil
}

// FillSuggestedLands adds the suggested basics using one fixed print per
// color. Colors whose print cannot be found are skipped.
func (s *Service) FillSuggestedLands(ctx context.Context, userID, deckID string) (*Saved, rules.LandSuggestion, error) {
	d, err := s.Get(ctx, userID, deckID)
	if err != nil {
		return nil, rules.LandSuggestion{}, err
	}

	sug := rules.SuggestLands(d.Entries, d.Format)
	next := *d
	for _, color := range rules.Colors {
		n := sug.Distribution[color]
		if n <= 0 {
			continue
		}
		land, ok := rules.BasicLandFor(color)
		if !ok {
			continue
		}
		found, err := s.Cards.Search(ctx, fmt.Sprintf("%s set:%s", land.Name, land.Set))
		if err != nil || len(found) == 0 {
			log.Printf("[deck] no print for %s: %v", land.Name, err)
			continue
		}
		next = AddCopies(next, found[0], n)
	}

	saved, err := s.save(ctx, next, false)
	if err != nil {
		return nil, rules.LandSuggestion{}, err
	}
	return saved, sug, nil
}

func (s *Service) Analyze(ctx context.Context, userID, deckID string) (*Analysis, error) {
	d, err := s.Get(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	a := AnalyzeDeck(*d)
	return &a, nil
}

func (s *Service) edit(ctx context.Context, userID, deckID string, fn func(models.Deck) (models.Deck, error)) (*Saved, error) {
	d, err := s.Get(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	next, err := fn(*d)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, next, false)
}

// apply resolves the input's card ids and builds the new deck state.
func (s *Service) apply(ctx context.Context, d models.Deck, in DeckInput) (models.Deck, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return d, fmt.Errorf("%w: name required", ErrBadInput)
	}
	if !in.Format.Valid() {
		return d, fmt.Errorf("%w: unknown format", ErrBadInput)
	}

	qty := make(map[string]int, len(in.Cards))
	var ids []string
	for _, e := range in.Cards {
		if !validQuantity(e.Quantity) {
			return d, fmt.Errorf("card %s: %w", e.CardID, ErrInvalidQuantity)
		}
		if _, seen := qty[e.CardID]; !seen {
			ids = append(ids, e.CardID)
		}
		qty[e.CardID] += e.Quantity
		if qty[e.CardID] > MaxQuantity {
			return d, fmt.Errorf("card %s: %w", e.CardID, ErrInvalidQuantity)
		}
	}

	found, err := s.Cards.GetByIDs(ctx, ids)
	if err != nil {
		return d, fmt.Errorf("resolve cards: %w", err)
	}
	byID := make(map[string]models.Card, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	next := d.Clone()
	next.Name = name
	next.Format = in.Format
	next.Entries = make([]models.DeckEntry, 0, len(ids))
	next.CommanderID = ""
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return d, fmt.Errorf("card %s: %w", id, ErrUnknownCard)
		}
		next.Entries = append(next.Entries, models.DeckEntry{Card: c, Quantity: qty[id]})
	}

	if in.CommanderID != "" {
		next, err = SetCommander(next, in.CommanderID)
		if err != nil {
			return d, err
		}
	}
	return next, nil
}

func (s *Service) save(ctx context.Context, d models.Deck, strict bool) (*Saved, error) {
	v := rules.Validate(d)
	if strict && !v.IsValid {
		return nil, &InvalidDeckError{Result: v}
	}

	d.UpdatedAt = s.clock()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = d.UpdatedAt
	}
	if err := s.Repo.Save(ctx, d); err != nil {
		return nil, err
	}

	s.publish(sync.DeckEvent{
		Type:       sync.DeckSaved,
		UserID:     d.UserID,
		DeckID:     d.ID,
		Format:     d.Format.String(),
		TotalCards: d.TotalCards(),
		IsValid:    v.IsValid,
		At:         d.UpdatedAt,
	})
	return &Saved{Deck: d, Validation: v}, nil
}

func (s *Service) load(ctx context.Context, userID, deckID string) (*models.Deck, error) {
	d, err := s.Repo.Get(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	if d.UserID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// hydrate replaces id-only entries with card records. Cards the source
// cannot resolve keep their id so the deck still round-trips.
func (s *Service) hydrate(ctx context.Context, d *models.Deck) {
	if len(d.Entries) == 0 {
		return
	}
	ids := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		ids = append(ids, e.Card.ID)
	}
	found, err := s.Cards.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[deck] hydrate %s: %v", d.ID, err)
		return
	}
	byID := make(map[string]models.Card, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	for i, e := range d.Entries {
		if c, ok := byID[e.Card.ID]; ok {
			d.Entries[i].Card = c
		}
	}
}

func (s *Service) publish(ev sync.DeckEvent) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(ev)
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}
