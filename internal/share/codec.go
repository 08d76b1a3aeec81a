// Package share implements the export/import codec: whole-dataset
// snapshots for backup, single-deck exports for sharing between
// installations, and the share-code URL scheme. The codec serializes
// record collections verbatim and enumerates referenced media ids; it
// never moves blob bytes itself.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/kvstore"
	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// Version identifies the export document format.
const Version = "1.0"

// ErrInvalidDocument is returned when an import payload fails
// structural validation. Nothing is written in that case.
var ErrInvalidDocument = errors.New("share: invalid export document")

// Codec performs export and import against one record store. It reads
// and writes the store's serialized collections directly.
type Codec struct {
	store *records.Store
	kv    *kvstore.Store
	log   *zap.Logger
}

// NewCodec constructs a Codec over the record store and its backing
// document.
func NewCodec(store *records.Store, kv *kvstore.Store, log *zap.Logger) *Codec {
	return &Codec{store: store, kv: kv, log: log}
}

// ExportAll snapshots every collection into a portable document.
// Records keep their media references; the de-duplicated set of
// referenced media ids travels alongside for completeness auditing,
// but no blob bytes are bundled.
func (c *Codec) ExportAll(ctx context.Context) (*models.ExportDocument, error) {
	doc := &models.ExportDocument{
		Version:    Version,
		Timestamp:  nowMillis(),
		User:       map[string]models.User{},
		Decks:      map[string]models.Deck{},
		Flashcards: map[string]models.Flashcard{},
		Themes:     map[string]models.Theme{},
		Sessions:   map[string]models.StudySession{},
		ShareCodes: map[string]models.ShareCode{},
	}

	if user, err := c.store.CurrentUser(ctx); err == nil {
		doc.User[user.ID] = *user
	}
	for key, dst := range map[string]any{
		records.ColDecks:      &doc.Decks,
		records.ColFlashcards: &doc.Flashcards,
		records.ColThemes:     &doc.Themes,
		records.ColSessions:   &doc.Sessions,
		records.ColShareCodes: &doc.ShareCodes,
	} {
		if _, err := c.kv.Get(key, dst); err != nil {
			return nil, fmt.Errorf("export %s: %w", key, err)
		}
	}

	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			doc.MediaIDs = append(doc.MediaIDs, id)
		}
	}
	for _, u := range doc.User {
		add(u.AvatarID)
	}
	for _, d := range doc.Decks {
		add(d.CoverImageID)
	}
	for _, t := range doc.Themes {
		add(t.CoverImageID)
	}
	for _, card := range doc.Flashcards {
		for _, side := range []models.CardSide{card.Front, card.Back} {
			add(side.ImageID)
			add(side.AudioID)
		}
	}
	return doc, nil
}

// ImportAll validates doc and merges every collection into the store,
// last write wins per id. Validation happens before any mutation: a
// structurally invalid document writes nothing.
func (c *Codec) ImportAll(ctx context.Context, doc *models.ExportDocument) error {
	if doc == nil || doc.Version == "" || doc.Timestamp == 0 {
		return ErrInvalidDocument
	}

	if len(doc.User) > 0 {
		users := make(map[string]models.User)
		if err := c.kv.Update(records.ColUsers, &users, func() error {
			for id, u := range doc.User {
				users[id] = u
			}
			return nil
		}); err != nil {
			return fmt.Errorf("import users: %w", err)
		}
	}

	if err := mergeCollection(c.kv, records.ColDecks, doc.Decks); err != nil {
		return err
	}
	if err := mergeCollection(c.kv, records.ColFlashcards, doc.Flashcards); err != nil {
		return err
	}
	if err := mergeCollection(c.kv, records.ColThemes, doc.Themes); err != nil {
		return err
	}
	if err := mergeCollection(c.kv, records.ColSessions, doc.Sessions); err != nil {
		return err
	}
	if err := mergeCollection(c.kv, records.ColShareCodes, doc.ShareCodes); err != nil {
		return err
	}
	return nil
}

// mergeCollection folds src into the named collection, keeping
// existing records that src does not mention.
func mergeCollection[T any](kv *kvstore.Store, key string, src map[string]T) error {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]T)
	if err := kv.Update(key, &dst, func() error {
		for id, rec := range src {
			dst[id] = rec
		}
		return nil
	}); err != nil {
		return fmt.Errorf("import %s: %w", key, err)
	}
	return nil
}

// ExportDeck snapshots one deck's themes and flashcards under freshly
// generated ids so importing elsewhere never collides with the source
// installation. OriginalID records where the export came from.
func (c *Codec) ExportDeck(deckID string) (*models.SharedDeckExport, error) {
	deck, err := c.store.GetDeck(deckID)
	if err != nil {
		return nil, fmt.Errorf("export deck %s: %w", deckID, err)
	}
	themes, err := c.store.ThemesByDeck(deckID)
	if err != nil {
		return nil, err
	}
	cards, err := c.store.FlashcardsByDeck(deckID)
	if err != nil {
		return nil, err
	}

	ts := nowMillis()
	out := &models.SharedDeckExport{
		ID:          uuid.NewString(),
		OriginalID:  deck.ID,
		Title:       deck.Title,
		Description: deck.Description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	// Theme ids are regenerated, so the cards' references must follow.
	themeIDs := make(map[string]string, len(themes))
	for _, theme := range themes {
		fresh := uuid.NewString()
		themeIDs[theme.ID] = fresh
		theme.ID = fresh
		out.Themes = append(out.Themes, theme)
	}
	for _, card := range cards {
		card.ID = uuid.NewString()
		card.ThemeID = themeIDs[card.ThemeID]
		out.Flashcards = append(out.Flashcards, card)
	}
	return out, nil
}

// ImportDeck creates a new deck owned by userID from a shared export,
// marked as shared with OriginalID set. Themes get fresh ids and the
// flashcards' theme references are remapped through the lookup built
// during theme import. Returns the new deck id. The active session
// must belong to userID.
func (c *Codec) ImportDeck(ctx context.Context, export *models.SharedDeckExport, userID string) (string, error) {
	user, err := c.store.CurrentUser(ctx)
	if err != nil || user.ID != userID {
		return "", records.ErrNotAuthenticated
	}

	deck, err := c.store.CreateDeck(models.Deck{
		Title:       export.Title,
		Description: export.Description,
		IsShared:    true,
		OriginalID:  export.OriginalID,
	})
	if err != nil {
		return "", fmt.Errorf("import deck: %w", err)
	}

	themeIDs := make(map[string]string, len(export.Themes))
	for _, theme := range export.Themes {
		created, err := c.store.CreateTheme(models.Theme{
			DeckID:      deck.ID,
			Title:       theme.Title,
			Description: theme.Description,
		})
		if err != nil {
			c.log.Error("failed to import theme",
				zap.String("title", theme.Title), zap.Error(err))
			continue
		}
		themeIDs[theme.ID] = created.ID
	}

	for _, card := range export.Flashcards {
		_, err := c.store.CreateFlashcard(models.Flashcard{
			DeckID:     deck.ID,
			ThemeID:    themeIDs[card.ThemeID],
			Front:      card.Front,
			Back:       card.Back,
			Difficulty: card.Difficulty,
		})
		if err != nil {
			c.log.Error("failed to import flashcard", zap.Error(err))
		}
	}
	return deck.ID, nil
}

// UpdateImportedDeck refreshes a previously imported deck from a newer
// export of the same original: its themes and flashcards are replaced
// wholesale while the deck record itself stays. Reports whether a
// matching imported deck was found.
func (c *Codec) UpdateImportedDeck(ctx context.Context, export *models.SharedDeckExport) (bool, error) {
	decks, err := c.store.ImportedDecks()
	if err != nil {
		return false, err
	}
	var target *models.Deck
	for i := range decks {
		if decks[i].OriginalID == export.OriginalID {
			target = &decks[i]
			break
		}
	}
	if target == nil {
		return false, nil
	}

	cards, err := c.store.FlashcardsByDeck(target.ID)
	if err != nil {
		return false, err
	}
	for _, card := range cards {
		c.store.DeleteFlashcard(ctx, card.ID)
	}
	themes, err := c.store.ThemesByDeck(target.ID)
	if err != nil {
		return false, err
	}
	for _, theme := range themes {
		c.store.DeleteTheme(ctx, theme.ID)
	}

	themeIDs := make(map[string]string, len(export.Themes))
	for _, theme := range export.Themes {
		created, err := c.store.CreateTheme(models.Theme{
			DeckID:      target.ID,
			Title:       theme.Title,
			Description: theme.Description,
		})
		if err != nil {
			continue
		}
		themeIDs[theme.ID] = created.ID
	}
	for _, card := range export.Flashcards {
		_, _ = c.store.CreateFlashcard(models.Flashcard{
			DeckID:     target.ID,
			ThemeID:    themeIDs[card.ThemeID],
			Front:      card.Front,
			Back:       card.Back,
			Difficulty: card.Difficulty,
		})
	}
	return true, nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// ShareURL derives the import link the UI hands out for a code.
func ShareURL(origin, code string) string {
	return fmt.Sprintf("%s/import/%s", origin, code)
}
