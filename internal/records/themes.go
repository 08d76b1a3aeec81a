package records

import (
	"context"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
)

// ThemeUpdate carries a partial theme update. Nil fields leave the
// stored value untouched.
type ThemeUpdate struct {
	Title       *string
	Description *string
	CoverImage  *string
}

// CreateTheme persists a new theme inside a deck. The deck reference
// is not validated; an orphaned theme is possible when decks are
// deleted out of order.
func (s *Store) CreateTheme(in models.Theme) (*models.Theme, error) {
	ts := now()
	theme := models.Theme{
		ID:           newID(),
		DeckID:       in.DeckID,
		Title:        in.Title,
		Description:  in.Description,
		CoverImage:   in.CoverImage,
		CoverImageID: in.CoverImageID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.putTheme(theme); err != nil {
		return nil, err
	}
	if media.IsDataURI(theme.CoverImage) && theme.CoverImageID == "" {
		id := theme.ID
		s.spawn(func(ctx context.Context) { s.migrateThemeCover(ctx, id) })
	}
	return &theme, nil
}

// GetTheme returns the stored form of a theme.
func (s *Store) GetTheme(id string) (*models.Theme, error) {
	themes, err := s.themeMap()
	if err != nil {
		return nil, err
	}
	theme, ok := themes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &theme, nil
}

// ThemesByDeck returns the themes belonging to a deck.
func (s *Store) ThemesByDeck(deckID string) ([]models.Theme, error) {
	themes, err := s.themeMap()
	if err != nil {
		return nil, err
	}
	var out []models.Theme
	for _, t := range themes {
		if t.DeckID == deckID {
			out = append(out, t)
		}
	}
	return out, nil
}

// HydrateTheme re-inlines the cover image for display.
func (s *Store) HydrateTheme(ctx context.Context, theme *models.Theme) {
	if theme.CoverImageID == "" {
		return
	}
	uri, err := s.loadDataURI(ctx, models.Image, theme.CoverImageID)
	if err != nil {
		if !mediaMissing(err) {
			s.log.Warn("failed to hydrate theme cover",
				zap.String("themeId", theme.ID), zap.Error(err))
		}
		return
	}
	theme.CoverImage = uri
}

// UpdateTheme merges upd over the stored theme and persists it. A new
// inline cover replaces the stored blob, same as decks.
func (s *Store) UpdateTheme(id string, upd ThemeUpdate) (*models.Theme, error) {
	theme, err := s.GetTheme(id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		theme.Title = *upd.Title
	}
	if upd.Description != nil {
		theme.Description = *upd.Description
	}

	newCover := upd.CoverImage != nil &&
		media.IsDataURI(*upd.CoverImage) && *upd.CoverImage != theme.CoverImage
	if newCover {
		theme.CoverImage = *upd.CoverImage
	}

	theme.UpdatedAt = now()
	if err := s.putTheme(*theme); err != nil {
		return nil, err
	}
	if newCover {
		s.spawn(func(ctx context.Context) { s.migrateThemeCover(ctx, id) })
	}
	return theme, nil
}

// DeleteTheme removes a theme and its cover blob. Flashcards keep
// their themeId; dangling theme references are tolerated on read.
func (s *Store) DeleteTheme(ctx context.Context, id string) DeleteResult {
	theme, err := s.GetTheme(id)
	if err != nil {
		return DeleteResult{Outcome: DeleteNotFound}
	}

	res := DeleteResult{Outcome: Deleted}
	res.merge(s.deleteCover(ctx, theme.CoverImageID))

	themes := make(map[string]models.Theme)
	if err := s.kv.Update(ColThemes, &themes, func() error {
		delete(themes, id)
		return nil
	}); err != nil {
		s.log.Error("failed to delete theme", zap.String("themeId", id), zap.Error(err))
	}
	return res
}

// migrateThemeCover mirrors migrateDeckCover for themes.
func (s *Store) migrateThemeCover(ctx context.Context, id string) {
	theme, err := s.GetTheme(id)
	if err != nil || !media.IsDataURI(theme.CoverImage) {
		return
	}
	if theme.CoverImageID != "" {
		if err := s.deleteCover(ctx, theme.CoverImageID); err != nil {
			s.log.Warn("stale cover blob left behind",
				zap.String("themeId", id), zap.Error(err))
		}
	}
	coverID, err := s.storeInline(ctx, models.Image, theme.CoverImage)
	if err != nil {
		s.log.Error("theme cover migration failed",
			zap.String("themeId", id), zap.Error(err))
		return
	}
	theme.CoverImageID = coverID
	if err := s.putTheme(*theme); err != nil {
		s.log.Error("failed to persist migrated theme cover",
			zap.String("themeId", id), zap.Error(err))
	}
}

func (s *Store) themeMap() (map[string]models.Theme, error) {
	themes := make(map[string]models.Theme)
	if _, err := s.kv.Get(ColThemes, &themes); err != nil {
		return nil, err
	}
	return themes, nil
}

func (s *Store) putTheme(theme models.Theme) error {
	themes := make(map[string]models.Theme)
	return s.kv.Update(ColThemes, &themes, func() error {
		themes[theme.ID] = theme
		return nil
	})
}
