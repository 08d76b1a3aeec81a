package migrate

import (
	"context"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/blobstore"
)

// Recompress moves blobs written before compression was available from
// the raw collections into the compressed one. When the active codec
// does not compress there is nothing to do. Returns the number of
// blobs moved; individual failures are logged and skipped.
func (e *Engine) Recompress(ctx context.Context) (int, error) {
	store := e.store.Media()
	if !store.Codec().Compresses() {
		return 0, nil
	}

	backend := store.Backend()
	moved := 0
	for _, bucket := range []string{blobstore.BucketImages, blobstore.BucketAudio} {
		keys, err := backend.List(ctx, bucket)
		if err != nil {
			return moved, err
		}
		for key := range keys {
			blob, err := backend.Get(ctx, bucket, key)
			if err != nil {
				e.log.Error("failed to read raw blob",
					zap.String("key", key), zap.Error(err))
				continue
			}
			compressed, err := store.Codec().Compress(blob)
			if err != nil {
				e.log.Error("failed to compress blob",
					zap.String("key", key), zap.Error(err))
				continue
			}
			if err := backend.Put(ctx, blobstore.BucketCompressed, key, compressed); err != nil {
				e.log.Error("failed to store compressed blob",
					zap.String("key", key), zap.Error(err))
				continue
			}
			// The raw copy is redundant once the compressed write landed.
			if err := backend.Delete(ctx, bucket, key); err != nil {
				e.log.Warn("raw copy left behind after recompression",
					zap.String("key", key), zap.Error(err))
			}
			moved++
		}
	}
	return moved, nil
}
