package records

import (
	"context"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
)

// DeckUpdate carries a partial deck update. Nil fields leave the
// stored value untouched. CoverImage replaces the stored cover: the
// old blob is deleted and the new inline payload migrated.
type DeckUpdate struct {
	Title       *string
	Description *string
	CoverImage  *string
	Tags        []string
	IsPublic    *bool
	IsPublished *bool
}

// CreateDeck persists a new deck owned by the current user. An inline
// cover image is migrated into the media store on the job group; the
// returned deck still carries the inline form.
func (s *Store) CreateDeck(in models.Deck) (*models.Deck, error) {
	user, err := s.CurrentUser(context.Background())
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	ts := now()
	deck := models.Deck{
		ID:           newID(),
		Title:        in.Title,
		Description:  in.Description,
		CoverImage:   in.CoverImage,
		CoverImageID: in.CoverImageID,
		Tags:         in.Tags,
		AuthorID:     user.ID,
		AuthorName:   user.Username,
		IsPublic:     in.IsPublic,
		CreatedAt:    ts,
		UpdatedAt:    ts,
		IsShared:     in.IsShared,
		OriginalID:   in.OriginalID,
		IsPublished:  in.IsPublished,
	}
	if deck.Title == "" {
		deck.Title = "New deck"
	}
	if deck.Tags == nil {
		deck.Tags = []string{}
	}
	if err := s.putDeck(deck); err != nil {
		return nil, err
	}

	if media.IsDataURI(deck.CoverImage) && deck.CoverImageID == "" {
		id := deck.ID
		s.spawn(func(ctx context.Context) { s.migrateDeckCover(ctx, id) })
	}
	return &deck, nil
}

// GetDeck returns the stored form of a deck, cover as a reference.
func (s *Store) GetDeck(id string) (*models.Deck, error) {
	decks, err := s.deckMap()
	if err != nil {
		return nil, err
	}
	deck, ok := decks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &deck, nil
}

// Decks returns every deck in the store.
func (s *Store) Decks() ([]models.Deck, error) {
	decks, err := s.deckMap()
	if err != nil {
		return nil, err
	}
	out := make([]models.Deck, 0, len(decks))
	for _, d := range decks {
		out = append(out, d)
	}
	return out, nil
}

// DecksByUser returns the decks authored by userID.
func (s *Store) DecksByUser(userID string) ([]models.Deck, error) {
	decks, err := s.Decks()
	if err != nil {
		return nil, err
	}
	out := decks[:0]
	for _, d := range decks {
		if d.AuthorID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

// HydrateDeck re-inlines the cover image for display.
func (s *Store) HydrateDeck(ctx context.Context, deck *models.Deck) {
	if deck.CoverImageID == "" {
		return
	}
	uri, err := s.loadDataURI(ctx, models.Image, deck.CoverImageID)
	if err != nil {
		if !mediaMissing(err) {
			s.log.Warn("failed to hydrate deck cover",
				zap.String("deckId", deck.ID), zap.Error(err))
		}
		return
	}
	deck.CoverImage = uri
}

// UpdateDeck merges upd over the stored deck and persists it. A new
// inline cover deletes the previous blob and migrates the new payload
// on the job group.
func (s *Store) UpdateDeck(id string, upd DeckUpdate) (*models.Deck, error) {
	deck, err := s.GetDeck(id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		deck.Title = *upd.Title
	}
	if upd.Description != nil {
		deck.Description = *upd.Description
	}
	if upd.Tags != nil {
		deck.Tags = upd.Tags
	}
	if upd.IsPublic != nil {
		deck.IsPublic = *upd.IsPublic
	}
	if upd.IsPublished != nil {
		deck.IsPublished = *upd.IsPublished
	}

	newCover := upd.CoverImage != nil &&
		media.IsDataURI(*upd.CoverImage) && *upd.CoverImage != deck.CoverImage
	if newCover {
		deck.CoverImage = *upd.CoverImage
	}

	deck.UpdatedAt = now()
	if err := s.putDeck(*deck); err != nil {
		return nil, err
	}

	if newCover {
		s.spawn(func(ctx context.Context) { s.migrateDeckCover(ctx, id) })
	}
	return deck, nil
}

// PublishDeck makes a deck public.
func (s *Store) PublishDeck(id string) error {
	yes := true
	_, err := s.UpdateDeck(id, DeckUpdate{IsPublic: &yes, IsPublished: &yes})
	return err
}

// UnpublishDeck withdraws a deck from public view.
func (s *Store) UnpublishDeck(id string) error {
	no := false
	_, err := s.UpdateDeck(id, DeckUpdate{IsPublic: &no, IsPublished: &no})
	return err
}

// ImportedDecks lists decks that were imported from a share export.
func (s *Store) ImportedDecks() ([]models.Deck, error) {
	decks, err := s.Decks()
	if err != nil {
		return nil, err
	}
	out := decks[:0]
	for _, d := range decks {
		if d.IsShared && d.OriginalID != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

// DeleteDeck removes a deck and cascades over its themes, flashcards
// and owned media. The cascade is not transactional: each step runs to
// completion regardless of earlier failures, and media failures are
// folded into the result.
func (s *Store) DeleteDeck(ctx context.Context, id string) DeleteResult {
	deck, err := s.GetDeck(id)
	if err != nil {
		return DeleteResult{Outcome: DeleteNotFound}
	}

	res := DeleteResult{Outcome: Deleted}
	res.merge(s.deleteCover(ctx, deck.CoverImageID))

	if cards, err := s.FlashcardsByDeck(id); err == nil {
		for _, card := range cards {
			sub := s.DeleteFlashcard(ctx, card.ID)
			res.merge(sub.MediaErr)
		}
	}
	if themes, err := s.ThemesByDeck(id); err == nil {
		for _, theme := range themes {
			sub := s.DeleteTheme(ctx, theme.ID)
			res.merge(sub.MediaErr)
		}
	}

	decks := make(map[string]models.Deck)
	if err := s.kv.Update(ColDecks, &decks, func() error {
		delete(decks, id)
		return nil
	}); err != nil {
		s.log.Error("failed to delete deck", zap.String("deckId", id), zap.Error(err))
	}
	return res
}

// migrateDeckCover re-reads a deck and moves its inline cover into the
// media store. Run on the job group.
func (s *Store) migrateDeckCover(ctx context.Context, id string) {
	deck, err := s.GetDeck(id)
	if err != nil || !media.IsDataURI(deck.CoverImage) {
		return
	}
	// Replacing an existing cover retires the old blob first.
	if deck.CoverImageID != "" {
		if err := s.deleteCover(ctx, deck.CoverImageID); err != nil {
			s.log.Warn("stale cover blob left behind",
				zap.String("deckId", id), zap.Error(err))
		}
	}
	coverID, err := s.storeInline(ctx, models.Image, deck.CoverImage)
	if err != nil {
		s.log.Error("deck cover migration failed",
			zap.String("deckId", id), zap.Error(err))
		return
	}
	deck.CoverImageID = coverID
	if err := s.putDeck(*deck); err != nil {
		s.log.Error("failed to persist migrated deck cover",
			zap.String("deckId", id), zap.Error(err))
	}
}

func (s *Store) deckMap() (map[string]models.Deck, error) {
	decks := make(map[string]models.Deck)
	if _, err := s.kv.Get(ColDecks, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

func (s *Store) putDeck(deck models.Deck) error {
	decks := make(map[string]models.Deck)
	return s.kv.Update(ColDecks, &decks, func() error {
		decks[deck.ID] = deck
		return nil
	})
}
