// Package maintenance hosts background upkeep for the blob store:
// finding and removing media blobs that no record references anymore.
// Orphans accumulate when a delete reports a partial media failure or
// the process dies between a record write and its blob cleanup.
package maintenance

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/blobstore"
	"github.com/edubreuil/flashkeeper/internal/kvstore"
	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// Sweeper scans the blob store for media no record points at.
type Sweeper struct {
	kv    *kvstore.Store
	media *blobstore.MediaStore
	log   *zap.Logger
}

// NewSweeper constructs a Sweeper over the record document and media
// store.
func NewSweeper(kv *kvstore.Store, media *blobstore.MediaStore, log *zap.Logger) *Sweeper {
	return &Sweeper{kv: kv, media: media, log: log}
}

// referenced collects every media id mentioned by any record.
func (sw *Sweeper) referenced() (map[string]bool, error) {
	ids := make(map[string]bool)
	add := func(id string) {
		if id != "" {
			ids[id] = true
		}
	}

	users := make(map[string]models.User)
	if _, err := sw.kv.Get(records.ColUsers, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		add(u.AvatarID)
	}

	decks := make(map[string]models.Deck)
	if _, err := sw.kv.Get(records.ColDecks, &decks); err != nil {
		return nil, err
	}
	for _, d := range decks {
		add(d.CoverImageID)
	}

	themes := make(map[string]models.Theme)
	if _, err := sw.kv.Get(records.ColThemes, &themes); err != nil {
		return nil, err
	}
	for _, t := range themes {
		add(t.CoverImageID)
	}

	cards := make(map[string]models.Flashcard)
	if _, err := sw.kv.Get(records.ColFlashcards, &cards); err != nil {
		return nil, err
	}
	for _, card := range cards {
		for _, side := range []models.CardSide{card.Front, card.Back} {
			add(side.ImageID)
			add(side.AudioID)
		}
	}
	return ids, nil
}

// orphans lists unreferenced blob keys per bucket.
func (sw *Sweeper) orphans(ctx context.Context) (map[string][]string, error) {
	ids, err := sw.referenced()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	for _, bucket := range []string{blobstore.BucketImages, blobstore.BucketAudio, blobstore.BucketCompressed} {
		sizes, err := sw.media.Backend().List(ctx, bucket)
		if err != nil {
			return nil, err
		}
		for key := range sizes {
			id := strings.TrimPrefix(strings.TrimPrefix(key, "img_"), "aud_")
			if !ids[id] {
				out[bucket] = append(out[bucket], key)
			}
		}
	}
	return out, nil
}

// CountOrphans reports how many unreferenced blobs exist without
// touching them.
func (sw *Sweeper) CountOrphans(ctx context.Context) (int, error) {
	orphans, err := sw.orphans(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, keys := range orphans {
		n += len(keys)
	}
	return n, nil
}

// Sweep removes every unreferenced blob and returns how many were
// deleted. Individual delete failures are logged and skipped.
func (sw *Sweeper) Sweep(ctx context.Context) (int, error) {
	orphans, err := sw.orphans(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for bucket, keys := range orphans {
		for _, key := range keys {
			if err := sw.media.Backend().Delete(ctx, bucket, key); err != nil {
				sw.log.Error("failed to delete orphaned blob",
					zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// Start sweeps for orphaned blobs with interval until ctx is done.
func (sw *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := sw.Sweep(ctx)
				if err != nil {
					sw.log.Error("orphan sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					sw.log.Info("removed orphaned blobs", zap.Int("removed", removed))
				}
			}
		}
	}()
}
