package blobstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
)

// DefaultQuota is assumed when no quota is configured.
const DefaultQuota = 100 * 1024 * 1024

// base64Inflation estimates how much larger the inline form of a blob
// was before migration; used only for the compression-ratio estimate.
const base64Inflation = 1.5

// Stats aggregates storage use over both collections. CompressionRatio
// is an estimate against a base64-equivalent baseline, not an exact
// measurement.
type Stats struct {
	CompressedSize   int64   `json:"compressedSize"`
	UncompressedSize int64   `json:"uncompressedSize"`
	ItemCount        int     `json:"itemCount"`
	CompressionRatio float64 `json:"compressionRatio"`
}

// Capacity is a best-effort view of storage use against the quota.
type Capacity struct {
	Usage       int64 `json:"usage"`
	Quota       int64 `json:"quota"`
	PercentUsed int   `json:"percentUsed"`
}

// MediaStore is the media block store. New writes target the
// compressed collection when the codec compresses, the kind's raw
// collection otherwise; reads try compressed first and fall back to
// raw, so data written under either strategy stays reachable.
type MediaStore struct {
	backend Backend
	codec   media.Codec
	quota   int64
	log     *zap.Logger
}

// NewMediaStore constructs a MediaStore over backend with the given
// compression codec. The codec is fixed for the life of the store.
// A quota of 0 selects DefaultQuota.
func NewMediaStore(backend Backend, codec media.Codec, quota int64, log *zap.Logger) *MediaStore {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &MediaStore{backend: backend, codec: codec, quota: quota, log: log}
}

// Put stores a blob under the composite key for kind and id. Images
// are optimized before compression; audio is compressed as-is.
func (ms *MediaStore) Put(ctx context.Context, kind models.MediaKind, id string, blob []byte) error {
	if kind == models.Image {
		blob = media.OptimizeImage(blob)
	}

	bucket := rawBucket(kind)
	if ms.codec.Compresses() {
		compressed, err := ms.codec.Compress(blob)
		if err != nil {
			// Keep the uncompressed form rather than failing the write.
			ms.log.Warn("compression failed, storing raw",
				zap.String("id", id), zap.Error(err))
		} else {
			blob = compressed
			bucket = BucketCompressed
		}
	}

	if err := ms.backend.Put(ctx, bucket, Key(kind, id), blob); err != nil {
		return fmt.Errorf("store media %s: %w", id, err)
	}
	return nil
}

// Get fetches the blob for kind and id, checking the compressed
// collection first and decompressing on the way out, then falling back
// to the raw collection. Returns ErrNotFound when neither holds it.
func (ms *MediaStore) Get(ctx context.Context, kind models.MediaKind, id string) ([]byte, error) {
	key := Key(kind, id)

	if ms.codec.Compresses() {
		blob, err := ms.backend.Get(ctx, BucketCompressed, key)
		if err == nil {
			out, derr := ms.codec.Decompress(blob)
			if derr != nil {
				ms.log.Warn("decompression failed, returning stored bytes",
					zap.String("id", id), zap.Error(derr))
			}
			return out, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	blob, err := ms.backend.Get(ctx, rawBucket(kind), key)
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Delete removes the blob from both collections unconditionally.
// Deleting an absent key is not an error.
func (ms *MediaStore) Delete(ctx context.Context, kind models.MediaKind, id string) error {
	key := Key(kind, id)
	var errs []error
	if ms.codec.Compresses() {
		if err := ms.backend.Delete(ctx, BucketCompressed, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ms.backend.Delete(ctx, rawBucket(kind), key); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Exists reports whether a blob is present in either collection.
func (ms *MediaStore) Exists(ctx context.Context, kind models.MediaKind, id string) (bool, error) {
	key := Key(kind, id)
	if ms.codec.Compresses() {
		ok, err := ms.backend.Exists(ctx, BucketCompressed, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return ms.backend.Exists(ctx, rawBucket(kind), key)
}

// Stats scans both collections and aggregates sizes and counts.
func (ms *MediaStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	if ms.codec.Compresses() {
		sizes, err := ms.backend.List(ctx, BucketCompressed)
		if err != nil {
			return st, err
		}
		for _, size := range sizes {
			st.CompressedSize += size
			st.ItemCount++
		}
	}

	for _, bucket := range []string{BucketImages, BucketAudio} {
		sizes, err := ms.backend.List(ctx, bucket)
		if err != nil {
			return st, err
		}
		for _, size := range sizes {
			st.UncompressedSize += size
			if !ms.codec.Compresses() {
				st.ItemCount++
			}
		}
	}

	total := st.CompressedSize + st.UncompressedSize
	original := float64(total)
	if ms.codec.Compresses() {
		original = float64(total) * base64Inflation
	}
	st.CompressionRatio = 1
	if original > 0 {
		st.CompressionRatio = float64(total) / original
	}
	return st, nil
}

// Capacity reports blob usage plus extra (the record document size)
// against the configured quota.
func (ms *MediaStore) Capacity(ctx context.Context, extra int64) (Capacity, error) {
	st, err := ms.Stats(ctx)
	if err != nil {
		return Capacity{Quota: ms.quota}, err
	}
	usage := st.CompressedSize + st.UncompressedSize + extra
	return Capacity{
		Usage:       usage,
		Quota:       ms.quota,
		PercentUsed: int(usage * 100 / ms.quota),
	}, nil
}

// Backend exposes the underlying store for maintenance sweeps.
func (ms *MediaStore) Backend() Backend { return ms.backend }

// Codec exposes the active compression strategy.
func (ms *MediaStore) Codec() media.Codec { return ms.codec }
