package records

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/blobstore"
	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
)

// storeInline decodes a data URI and stores it under a fresh media id.
func (s *Store) storeInline(ctx context.Context, kind models.MediaKind, dataURI string) (string, error) {
	blob, _, err := media.FromDataURI(dataURI, "")
	if err != nil {
		return "", err
	}
	id := media.NewID()
	if err := s.media.Put(ctx, kind, id, blob); err != nil {
		return "", err
	}
	return id, nil
}

// MigrateSide moves inline media on a card side into the media store,
// populating the reference fields. The inline copies are kept for
// immediate display; a cleanup sweep clears them later. A side whose
// reference field is already set is left alone, which makes repeated
// sweeps idempotent. Returns whether the side changed; per-field
// failures are joined into the error and never undo the other field.
func (s *Store) MigrateSide(ctx context.Context, side *models.CardSide) (bool, error) {
	var changed bool
	var errs []error

	if media.IsDataURI(side.Image) && side.ImageID == "" {
		id, err := s.storeInline(ctx, models.Image, side.Image)
		if err != nil {
			errs = append(errs, err)
		} else {
			side.ImageID = id
			changed = true
		}
	} else if side.ImageID != "" && media.IsDataURI(side.Image) {
		// Reference without a stored blob: a record imported from
		// another installation. Re-seed the blob under the same id.
		if err := s.reseed(ctx, models.Image, side.ImageID, side.Image); err != nil {
			errs = append(errs, err)
		}
	}

	if media.IsDataURI(side.Audio) && side.AudioID == "" {
		id, err := s.storeInline(ctx, models.Audio, side.Audio)
		if err != nil {
			errs = append(errs, err)
		} else {
			side.AudioID = id
			changed = true
		}
	} else if side.AudioID != "" && media.IsDataURI(side.Audio) {
		if err := s.reseed(ctx, models.Audio, side.AudioID, side.Audio); err != nil {
			errs = append(errs, err)
		}
	}

	return changed, errors.Join(errs...)
}

// reseed stores an inline payload under an existing reference id when
// the blob store has no entry for it.
func (s *Store) reseed(ctx context.Context, kind models.MediaKind, id, dataURI string) error {
	exists, err := s.media.Exists(ctx, kind, id)
	if err != nil || exists {
		return err
	}
	blob, _, err := media.FromDataURI(dataURI, "")
	if err != nil {
		return err
	}
	return s.media.Put(ctx, kind, id, blob)
}

// hydrateSide re-inlines referenced media for display. Missing blobs
// leave the side unchanged.
func (s *Store) hydrateSide(ctx context.Context, side *models.CardSide) error {
	var errs []error
	if side.ImageID != "" {
		if uri, err := s.loadDataURI(ctx, models.Image, side.ImageID); err != nil {
			errs = append(errs, err)
		} else {
			side.Image = uri
		}
	}
	if side.AudioID != "" {
		if uri, err := s.loadDataURI(ctx, models.Audio, side.AudioID); err != nil {
			errs = append(errs, err)
		} else {
			side.Audio = uri
		}
	}
	return errors.Join(errs...)
}

// loadDataURI fetches a blob and re-encodes it as a data URI. The
// content type is sniffed from the bytes; the store keeps blobs opaque.
func (s *Store) loadDataURI(ctx context.Context, kind models.MediaKind, id string) (string, error) {
	blob, err := s.media.Get(ctx, kind, id)
	if err != nil {
		return "", err
	}
	return media.ToDataURI(blob, http.DetectContentType(blob)), nil
}

// deleteSideMedia removes both blobs referenced by a side. Absent
// references are skipped.
func (s *Store) deleteSideMedia(ctx context.Context, side models.CardSide) error {
	var errs []error
	if side.ImageID != "" {
		if err := s.media.Delete(ctx, models.Image, side.ImageID); err != nil {
			errs = append(errs, err)
		}
	}
	if side.AudioID != "" {
		if err := s.media.Delete(ctx, models.Audio, side.AudioID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deleteCover removes a cover blob if the reference is set, logging
// the outcome for the maintenance trail.
func (s *Store) deleteCover(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.media.Delete(ctx, models.Image, id); err != nil {
		s.log.Error("failed to delete cover image",
			zap.String("mediaId", id), zap.Error(err))
		return err
	}
	return nil
}

// mediaMissing reports whether err only signals an absent blob.
func mediaMissing(err error) bool {
	return errors.Is(err, blobstore.ErrNotFound)
}
