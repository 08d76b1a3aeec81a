// Package migrate implements the opportunistic media migration engine:
// batch sweeps that move inline data-URI media out of flashcards into
// the block store, the cleanup pass that drops the redundant inline
// copies afterwards, and the read-only checks that drive the storage
// maintenance panel.
//
// Each media field walks a small state machine: inline (data URI
// only), referenced (id populated, inline kept for display), cleaned
// (id only). Migration performs inline→referenced; cleanup performs
// referenced→cleaned and never runs implicitly, so the only copy of a
// payload is never destroyed before its blob is verified written.
package migrate

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

const (
	// migrateBatchSize bounds how many cards one migration batch
	// touches before yielding.
	migrateBatchSize = 10
	// cleanupBatchSize bounds cleanup batches; cleanup does no blob
	// writes so it can take bigger bites.
	cleanupBatchSize = 20
	// batchPause lets the rest of the application breathe between
	// batches.
	batchPause = 100 * time.Millisecond
	// cleanupPause is the shorter pause between cleanup batches.
	cleanupPause = 50 * time.Millisecond
)

// Engine drives migration and cleanup sweeps over the record store.
type Engine struct {
	store *records.Store
	log   *zap.Logger
}

// New constructs an Engine over the given record store.
func New(store *records.Store, log *zap.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// sideInline reports whether a side has a field in the inline state.
func sideInline(side models.CardSide) bool {
	return (media.IsDataURI(side.Image) && side.ImageID == "") ||
		(media.IsDataURI(side.Audio) && side.AudioID == "")
}

// sideRedundant reports whether a side has a field in the referenced
// state with its inline copy still present.
func sideRedundant(side models.CardSide) bool {
	return (side.ImageID != "" && media.IsDataURI(side.Image)) ||
		(side.AudioID != "" && media.IsDataURI(side.Audio))
}

// Pending counts flashcards with at least one field in the inline
// state. It is a pure read with no side effects; the UI uses it to
// gate the migrate action.
func (e *Engine) Pending() (int, error) {
	cards, err := e.store.Flashcards()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, card := range cards {
		if sideInline(card.Front) || sideInline(card.Back) {
			count++
		}
	}
	return count, nil
}

// MigrateAll sweeps every flashcard in fixed-size batches, migrating
// inline side media into the block store. Fields already referenced
// are skipped, so re-running the sweep is idempotent and a second run
// reports zero. One bad field never aborts the batch: failures are
// logged and the sweep moves on. Returns the number of cards updated.
func (e *Engine) MigrateAll(ctx context.Context) (int, error) {
	cards, err := e.store.Flashcards()
	if err != nil {
		return 0, err
	}
	// Stable order keeps progress logs readable across runs.
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })

	migrated := 0
	for start := 0; start < len(cards); start += migrateBatchSize {
		end := min(start+migrateBatchSize, len(cards))
		for i := start; i < end; i++ {
			card := cards[i]
			frontChanged, ferr := e.store.MigrateSide(ctx, &card.Front)
			if ferr != nil {
				e.log.Error("front side migration failed",
					zap.String("cardId", card.ID), zap.Error(ferr))
			}
			backChanged, berr := e.store.MigrateSide(ctx, &card.Back)
			if berr != nil {
				e.log.Error("back side migration failed",
					zap.String("cardId", card.ID), zap.Error(berr))
			}
			if frontChanged || backChanged {
				if err := e.store.SaveFlashcard(card); err != nil {
					e.log.Error("failed to persist migrated card",
						zap.String("cardId", card.ID), zap.Error(err))
					continue
				}
				migrated++
			}
		}

		e.log.Info("migration progress",
			zap.Int("processed", end), zap.Int("total", len(cards)))
		if end < len(cards) {
			select {
			case <-ctx.Done():
				return migrated, ctx.Err()
			case <-time.After(batchPause):
			}
		}
	}
	return migrated, nil
}

// Cleanup sweeps every flashcard and clears inline copies whose
// reference field is populated, completing referenced→cleaned. It
// never touches fields still in the inline state, and a second run is
// a no-op. Returns the number of cards updated.
func (e *Engine) Cleanup(ctx context.Context) (int, error) {
	cards, err := e.store.Flashcards()
	if err != nil {
		return 0, err
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })

	cleaned := 0
	for start := 0; start < len(cards); start += cleanupBatchSize {
		end := min(start+cleanupBatchSize, len(cards))
		for i := start; i < end; i++ {
			card := cards[i]
			if !sideRedundant(card.Front) && !sideRedundant(card.Back) {
				continue
			}
			clearRedundant(&card.Front)
			clearRedundant(&card.Back)
			if err := e.store.SaveFlashcard(card); err != nil {
				e.log.Error("failed to persist cleaned card",
					zap.String("cardId", card.ID), zap.Error(err))
				continue
			}
			cleaned++
		}

		if end < len(cards) {
			select {
			case <-ctx.Done():
				return cleaned, ctx.Err()
			case <-time.After(cleanupPause):
			}
		}
	}
	return cleaned, nil
}

// clearRedundant drops inline copies shadowed by a reference.
func clearRedundant(side *models.CardSide) {
	if side.ImageID != "" && media.IsDataURI(side.Image) {
		side.Image = ""
	}
	if side.AudioID != "" && media.IsDataURI(side.Audio) {
		side.Audio = ""
	}
}

// InlineStats summarizes how much inline media remains in the record
// document and what migrating it could save.
type InlineStats struct {
	FlashcardCount int `json:"flashcardCount"`
	// MediaCount is the number of fields still carrying inline media.
	MediaCount int `json:"mediaCount"`
	// StorageKB is the total inline payload size in kilobytes.
	StorageKB int `json:"storageSize"`
	// PotentialKB estimates the kilobytes reclaimable by migration,
	// assuming base64 overhead plus compression.
	PotentialKB int `json:"optimizationPotential"`
}

// savingsFactor estimates migration gains: base64 is about a third
// larger than binary and compression roughly halves the rest.
const savingsFactor = 0.6

// Stats scans all flashcards and totals their inline media payloads.
func (e *Engine) Stats() (InlineStats, error) {
	cards, err := e.store.Flashcards()
	if err != nil {
		return InlineStats{}, err
	}
	var st InlineStats
	st.FlashcardCount = len(cards)
	total := 0
	for _, card := range cards {
		for _, side := range []models.CardSide{card.Front, card.Back} {
			if media.IsDataURI(side.Image) {
				st.MediaCount++
				total += len(side.Image)
			}
			if media.IsDataURI(side.Audio) {
				st.MediaCount++
				total += len(side.Audio)
			}
		}
	}
	st.StorageKB = total / 1024
	st.PotentialKB = int(float64(total)*savingsFactor) / 1024
	return st, nil
}
