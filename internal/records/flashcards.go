package records

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
)

// FlashcardUpdate carries a partial flashcard update. Nil fields leave
// the stored value untouched.
type FlashcardUpdate struct {
	ThemeID      *string
	Front        *models.CardSide
	Back         *models.CardSide
	LastReviewed *int64
	ReviewCount  *int
	Difficulty   *models.Difficulty
}

// hasInline reports whether a side still carries un-migrated media.
func hasInline(side models.CardSide) bool {
	return (media.IsDataURI(side.Image) && side.ImageID == "") ||
		(media.IsDataURI(side.Audio) && side.AudioID == "")
}

// CreateFlashcard persists a new flashcard and returns it. Inline
// media on either side triggers migration into the media store on the
// job group; the returned card still carries the inline form, and a
// read after Flush observes the reference fields.
func (s *Store) CreateFlashcard(in models.Flashcard) (*models.Flashcard, error) {
	if in.DeckID == "" {
		return nil, errors.New("records: flashcard needs a deck")
	}
	ts := now()
	card := models.Flashcard{
		ID:           newID(),
		DeckID:       in.DeckID,
		ThemeID:      in.ThemeID,
		Front:        in.Front,
		Back:         in.Back,
		CreatedAt:    ts,
		UpdatedAt:    ts,
		LastReviewed: in.LastReviewed,
		ReviewCount:  in.ReviewCount,
		Difficulty:   in.Difficulty,
	}
	if err := s.putFlashcard(card); err != nil {
		return nil, err
	}
	if hasInline(card.Front) || hasInline(card.Back) {
		id := card.ID
		s.spawn(func(ctx context.Context) { s.migrateCard(ctx, id) })
	}
	return &card, nil
}

// GetFlashcard returns the stored form of a flashcard. Referenced
// media stays a reference; HydrateFlashcard re-inlines it on demand.
func (s *Store) GetFlashcard(id string) (*models.Flashcard, error) {
	cards, err := s.flashcardMap()
	if err != nil {
		return nil, err
	}
	card, ok := cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &card, nil
}

// Flashcards returns every flashcard in the store.
func (s *Store) Flashcards() ([]models.Flashcard, error) {
	cards, err := s.flashcardMap()
	if err != nil {
		return nil, err
	}
	out := make([]models.Flashcard, 0, len(cards))
	for _, c := range cards {
		out = append(out, c)
	}
	return out, nil
}

// FlashcardsByDeck returns the flashcards belonging to a deck.
func (s *Store) FlashcardsByDeck(deckID string) ([]models.Flashcard, error) {
	return s.filterFlashcards(func(c models.Flashcard) bool { return c.DeckID == deckID })
}

// FlashcardsByTheme returns the flashcards assigned to a theme.
func (s *Store) FlashcardsByTheme(themeID string) ([]models.Flashcard, error) {
	return s.filterFlashcards(func(c models.Flashcard) bool { return c.ThemeID == themeID })
}

// UpdateFlashcard merges upd over the stored card, re-stamps, and
// persists. Replacing a side with fresh inline media enqueues its
// migration the same way create does.
func (s *Store) UpdateFlashcard(id string, upd FlashcardUpdate) (*models.Flashcard, error) {
	card, err := s.GetFlashcard(id)
	if err != nil {
		return nil, err
	}
	if upd.ThemeID != nil {
		card.ThemeID = *upd.ThemeID
	}
	if upd.Front != nil {
		card.Front = *upd.Front
	}
	if upd.Back != nil {
		card.Back = *upd.Back
	}
	if upd.LastReviewed != nil {
		card.LastReviewed = *upd.LastReviewed
	}
	if upd.ReviewCount != nil {
		card.ReviewCount = *upd.ReviewCount
	}
	if upd.Difficulty != nil {
		card.Difficulty = *upd.Difficulty
	}
	card.UpdatedAt = now()
	if err := s.putFlashcard(*card); err != nil {
		return nil, err
	}
	if hasInline(card.Front) || hasInline(card.Back) {
		s.spawn(func(ctx context.Context) { s.migrateCard(ctx, id) })
	}
	return card, nil
}

// SaveFlashcard persists a card verbatim, re-stamping UpdatedAt and
// skipping media processing. The migration engine uses it to write
// back swept cards.
func (s *Store) SaveFlashcard(card models.Flashcard) error {
	card.UpdatedAt = now()
	return s.putFlashcard(card)
}

// HydrateFlashcard re-inlines the referenced media of both sides so
// the card can be displayed. Missing blobs are logged and skipped,
// never surfaced: best available data wins.
func (s *Store) HydrateFlashcard(ctx context.Context, card *models.Flashcard) {
	for _, side := range []*models.CardSide{&card.Front, &card.Back} {
		if err := s.hydrateSide(ctx, side); err != nil && !mediaMissing(err) {
			s.log.Warn("failed to hydrate card media",
				zap.String("cardId", card.ID), zap.Error(err))
		}
	}
}

// DeleteFlashcard removes a card and the media its sides own. Media
// cleanup runs synchronously and its failures are reported in the
// result; the record removal itself is never rolled back.
func (s *Store) DeleteFlashcard(ctx context.Context, id string) DeleteResult {
	card, err := s.GetFlashcard(id)
	if err != nil {
		return DeleteResult{Outcome: DeleteNotFound}
	}

	res := DeleteResult{Outcome: Deleted}
	res.merge(s.deleteSideMedia(ctx, card.Front))
	res.merge(s.deleteSideMedia(ctx, card.Back))
	if res.MediaErr != nil {
		s.log.Error("card media cleanup incomplete",
			zap.String("cardId", id), zap.Error(res.MediaErr))
	}

	cards := make(map[string]models.Flashcard)
	if err := s.kv.Update(ColFlashcards, &cards, func() error {
		delete(cards, id)
		return nil
	}); err != nil {
		s.log.Error("failed to delete flashcard", zap.String("cardId", id), zap.Error(err))
	}
	return res
}

// migrateCard re-reads a card and migrates any inline side media,
// persisting the references. Run on the job group.
func (s *Store) migrateCard(ctx context.Context, id string) {
	card, err := s.GetFlashcard(id)
	if err != nil {
		return
	}
	frontChanged, ferr := s.MigrateSide(ctx, &card.Front)
	backChanged, berr := s.MigrateSide(ctx, &card.Back)
	if err := errors.Join(ferr, berr); err != nil {
		s.log.Error("card media migration failed",
			zap.String("cardId", id), zap.Error(err))
	}
	if frontChanged || backChanged {
		if err := s.putFlashcard(*card); err != nil {
			s.log.Error("failed to persist migrated card",
				zap.String("cardId", id), zap.Error(err))
		}
	}
}

func (s *Store) flashcardMap() (map[string]models.Flashcard, error) {
	cards := make(map[string]models.Flashcard)
	if _, err := s.kv.Get(ColFlashcards, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *Store) filterFlashcards(keep func(models.Flashcard) bool) ([]models.Flashcard, error) {
	cards, err := s.flashcardMap()
	if err != nil {
		return nil, err
	}
	var out []models.Flashcard
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) putFlashcard(card models.Flashcard) error {
	cards := make(map[string]models.Flashcard)
	return s.kv.Update(ColFlashcards, &cards, func() error {
		cards[card.ID] = card
		return nil
	})
}
