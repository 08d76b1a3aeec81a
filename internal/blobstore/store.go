// Package blobstore implements the media block store: key-addressed
// binary storage split into raw and compressed collections, with the
// compression strategy fixed at construction time.
package blobstore

import (
	"context"
	"errors"

	"github.com/edubreuil/flashkeeper/internal/models"
)

// Bucket names the backing collections. Raw image and audio blobs are
// kept apart; compressed blobs of both kinds share one collection.
const (
	BucketImages     = "images"
	BucketAudio      = "audio"
	BucketCompressed = "compressed"
)

// ErrNotFound is returned when a key is present in no collection.
var ErrNotFound = errors.New("blobstore: not found")

// Backend is the minimal keyed byte store the media layer is built on.
// Implementations must treat Delete of an absent key as a no-op.
type Backend interface {
	// Put stores blob under key in the named bucket, replacing any
	// existing value.
	Put(ctx context.Context, bucket, key string, blob []byte) error
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Delete removes key from the bucket.
	Delete(ctx context.Context, bucket, key string) error
	// Exists reports whether key is present in the bucket.
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// List returns every key in the bucket with its blob size.
	List(ctx context.Context, bucket string) (map[string]int64, error)
	// Close releases backend resources.
	Close() error
}

// Key builds the composite storage key for a media blob. The id itself
// carries no type information; the kind contributes the prefix.
func Key(kind models.MediaKind, id string) string {
	if kind == models.Audio {
		return "aud_" + id
	}
	return "img_" + id
}

// rawBucket maps a media kind to the uncompressed collection it
// belongs in.
func rawBucket(kind models.MediaKind) string {
	if kind == models.Audio {
		return BucketAudio
	}
	return BucketImages
}
