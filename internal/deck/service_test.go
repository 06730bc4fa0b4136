package deck

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckerr/internal/sync"
	"deckerr/pkg/database"
	"deckerr/pkg/models"
)

// fakeSource resolves cards from a fixed set. Search matches the card name
// exactly, ignoring a trailing "set:" filter.
type fakeSource struct {
	cards    []models.Card
	failNext bool
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]models.Card, error) {
	if f.failNext {
		f.failNext = false
		return nil, errors.New("upstream down")
	}
	name, _, _ := strings.Cut(query, " set:")
	out := []models.Card{}
	for _, c := range f.cards {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSource) GetByIDs(ctx context.Context, ids []string) ([]models.Card, error) {
	var out []models.Card
	for _, id := range ids {
		for _, c := range f.cards {
			if c.ID == id {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

type recorder struct {
	mu     gosync.Mutex
	events []sync.DeckEvent
}

func (r *recorder) Publish(ev sync.DeckEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) last() sync.DeckEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

var counterspell = models.Card{ID: "cs", Name: "Counterspell", TypeLine: "Instant", ManaCost: "{U}{U}"}

var testCards = []models.Card{
	bolt,
	counterspell,
	krenko,
	{ID: "unh-mtn", Name: "Mountain", TypeLine: "Basic Land — Mountain", Set: "unh"},
	{ID: "unh-isl", Name: "Island", TypeLine: "Basic Land — Island", Set: "unh"},
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "deck.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	for _, u := range []string{"u1", "u2"} {
		_, err := db.Exec(`INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, 'x')`, u, u, u+"@example.com")
		require.NoError(t, err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *fakeSource, *recorder) {
	t.Helper()
	src := &fakeSource{cards: testCards}
	rec := &recorder{}
	return NewService(NewRepo(newTestDB(t)), src, rec), src, rec
}

func createBurn(t *testing.T, s *Service) *Saved {
	t.Helper()
	saved, err := s.Create(context.Background(), "u1", DeckInput{
		Name:   "Burn",
		Format: models.Standard,
		Cards: []EntryInput{
			{CardID: "bolt", Quantity: 4},
			{CardID: "cs", Quantity: 4},
		},
	})
	require.NoError(t, err)
	return saved
}

func TestService_CreateAndGet(t *testing.T) {
	s, _, rec := newTestService(t)
	ctx := context.Background()

	saved := createBurn(t, s)
	assert.NotEmpty(t, saved.Deck.ID)
	assert.False(t, saved.Validation.IsValid)
	assert.Equal(t, []string{"Deck must contain at least 60 cards"}, saved.Validation.Errors)

	ev := rec.last()
	assert.Equal(t, sync.DeckSaved, ev.Type)
	assert.Equal(t, 8, ev.TotalCards)
	assert.Equal(t, "standard", ev.Format)

	got, err := s.Get(ctx, "u1", saved.Deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Burn", got.Name)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "Lightning Bolt", got.Entries[0].Card.Name)
	assert.Equal(t, "{U}{U}", got.Entries[1].Card.ManaCost)

	_, err = s.Get(ctx, "u2", saved.Deck.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Get(ctx, "u1", "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_CreateMergesDuplicateIDs(t *testing.T) {
	s, _, _ := newTestService(t)
	saved, err := s.Create(context.Background(), "u1", DeckInput{
		Name:  "Dupes",
		Cards: []EntryInput{{CardID: "bolt", Quantity: 2}, {CardID: "bolt", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, saved.Deck.Entries, 1)
	assert.Equal(t, 5, saved.Deck.Entries[0].Quantity)
	assert.Contains(t, saved.Validation.Errors, "bolt has too many copies (max 4)")
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", DeckInput{Name: " "})
	assert.ErrorIs(t, err, ErrBadInput)

	_, err = s.Create(ctx, "u1", DeckInput{Name: "x", Cards: []EntryInput{{CardID: "nope", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, err = s.Create(ctx, "u1", DeckInput{Name: "x", Cards: []EntryInput{{CardID: "bolt", Quantity: 0}}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.Create(ctx, "u1", DeckInput{Name: "x", Cards: []EntryInput{{CardID: "unh-mtn", Quantity: 60}, {CardID: "unh-mtn", Quantity: 60}}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.Create(ctx, "u1", DeckInput{Name: "x", Format: models.Commander, Cards: []EntryInput{{CardID: "bolt", Quantity: 1}}, CommanderID: "bolt"})
	assert.ErrorIs(t, err, ErrNotCommander)
}

func TestService_StrictCreateDoesNotSave(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", DeckInput{
		Name:   "Too small",
		Cards:  []EntryInput{{CardID: "bolt", Quantity: 1}},
		Strict: true,
	})
	var invalid *InvalidDeckError
	require.ErrorAs(t, err, &invalid)
	assert.False(t, invalid.Result.IsValid)

	_, total, err := s.List(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestService_ListNewestFirst(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := s.Create(ctx, "u1", DeckInput{Name: "First"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u1", DeckInput{Name: "Second"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u2", DeckInput{Name: "Not mine"})
	require.NoError(t, err)

	items, total, err := s.List(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Second", items[0].Name)

	_, err = s.AddCard(ctx, "u1", first.Deck.ID, "bolt", 1)
	require.NoError(t, err)

	items, _, err = s.List(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "First", items[0].Name)
	assert.Equal(t, 1, items[0].TotalCards)
}

func TestService_EditOperations(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	id := createBurn(t, s).Deck.ID

	saved, err := s.AddCard(ctx, "u1", id, "bolt", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Deck.Entries[0].Quantity)

	_, err = s.AddCard(ctx, "u1", id, "ghost", 1)
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, err = s.AddCard(ctx, "u1", id, "bolt", 20_000_000)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	saved, err = s.AddCard(ctx, "u1", id, "unh-mtn", MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, saved.Deck.Entries[2].Quantity)

	saved, err = s.AddCard(ctx, "u1", id, "unh-mtn", MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, saved.Deck.Entries[2].Quantity)

	saved, err = s.RemoveCard(ctx, "u1", id, "unh-mtn")
	require.NoError(t, err)
	require.Len(t, saved.Deck.Entries, 2)

	saved, err = s.SetQuantity(ctx, "u1", id, "cs", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Deck.Entries[1].Quantity)

	_, err = s.SetQuantity(ctx, "u1", id, "cs", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.SetQuantity(ctx, "u1", id, "cs", MaxQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	saved, err = s.RemoveCard(ctx, "u1", id, "cs")
	require.NoError(t, err)
	assert.Len(t, saved.Deck.Entries, 1)

	got, err := s.Get(ctx, "u1", id)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "bolt", got.Entries[0].Card.ID)
}

func TestService_Commander(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	saved, err := s.Create(ctx, "u1", DeckInput{
		Name:        "Goblins",
		Format:      models.Commander,
		Cards:       []EntryInput{{CardID: "krenko", Quantity: 1}, {CardID: "bolt", Quantity: 1}},
		CommanderID: "krenko",
	})
	require.NoError(t, err)
	assert.Equal(t, "krenko", saved.Deck.CommanderID)
	assert.Equal(t, []string{"Deck must contain at least 100 cards"}, saved.Validation.Errors)

	got, err := s.Get(ctx, "u1", saved.Deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "krenko", got.CommanderID)

	_, err = s.SetCommander(ctx, "u1", saved.Deck.ID, "bolt")
	assert.ErrorIs(t, err, ErrNotCommander)

	cleared, err := s.SetCommander(ctx, "u1", saved.Deck.ID, "")
	require.NoError(t, err)
	assert.Empty(t, cleared.Deck.CommanderID)
}

func TestService_Import(t *testing.T) {
	s, src, _ := newTestService(t)
	ctx := context.Background()
	id := createBurn(t, s).Deck.ID

	saved, report, err := s.Import(ctx, "u1", id, "2 Lightning Bolt\n3 Unknown Card\n10 Mountain\n")
	require.NoError(t, err)
	assert.Equal(t, 10, report.Added, "bolt was already at the cap")
	assert.Equal(t, []string{"Unknown Card"}, report.Missing)
	require.Len(t, saved.Deck.Entries, 3)
	assert.Equal(t, 4, saved.Deck.Entries[0].Quantity, "bolt capped at 4")
	assert.Equal(t, 10, saved.Deck.Entries[2].Quantity)

	src.failNext = true
	_, report, err = s.Import(ctx, "u1", id, "1 Counterspell\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Counterspell"}, report.Missing)
}

func TestService_FillSuggestedLands(t *testing.T) {
	s, _, rec := newTestService(t)
	ctx := context.Background()
	id := createBurn(t, s).Deck.ID

	saved, sug, err := s.FillSuggestedLands(ctx, "u1", id)
	require.NoError(t, err)

	// 8 cards, 4 red pips and 8 blue pips: 52 lands split 17/35
	assert.Equal(t, 52, sug.LandsToAdd)
	assert.Equal(t, 17, sug.Distribution["R"])
	assert.Equal(t, 35, sug.Distribution["U"])

	assert.Equal(t, 60, saved.Deck.TotalCards())
	assert.True(t, saved.Validation.IsValid)
	assert.True(t, rec.last().IsValid)

	got, err := s.Get(ctx, "u1", id)
	require.NoError(t, err)
	qty := map[string]int{}
	for _, e := range got.Entries {
		qty[e.Card.ID] = e.Quantity
	}
	assert.Equal(t, 17, qty["unh-mtn"])
	assert.Equal(t, 35, qty["unh-isl"])

	a, err := s.Analyze(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, 52, a.LandCards)
	assert.Equal(t, 0, a.Suggestion.LandsToAdd)
}

func TestService_Delete(t *testing.T) {
	s, _, rec := newTestService(t)
	ctx := context.Background()
	id := createBurn(t, s).Deck.ID

	assert.ErrorIs(t, s.Delete(ctx, "u2", id), ErrForbidden)
	require.NoError(t, s.Delete(ctx, "u1", id))
	assert.Equal(t, sync.DeckDeleted, rec.last().Type)

	assert.ErrorIs(t, s.Delete(ctx, "u1", id), ErrNotFound)

	var n int
	require.NoError(t, s.Repo.DB.QueryRow(`SELECT COUNT(*) FROM deck_cards WHERE deck_id = ?`, id).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestService_Replace(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	orig := createBurn(t, s)

	saved, err := s.Replace(ctx, "u1", orig.Deck.ID, DeckInput{
		Name:   "Burn v2",
		Format: models.Modern,
		Cards:  []EntryInput{{CardID: "bolt", Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, orig.Deck.ID, saved.Deck.ID)
	assert.Equal(t, models.Modern, saved.Deck.Format)

	got, err := s.Get(ctx, "u1", orig.Deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Burn v2", got.Name)
	assert.Len(t, got.Entries, 1)
	assert.WithinDuration(t, orig.Deck.CreatedAt, got.CreatedAt, time.Second)

	_, err = s.Replace(ctx, "u2", orig.Deck.ID, DeckInput{Name: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)
}
