// Package media implements the blob transcoding pipeline: stream
// compression, image optimization, data-URI conversion and media id
// generation. All transformations fall back to returning their input
// unchanged on failure so that callers never branch on capability.
package media

import (
	"bytes"
	"compress/gzip"
	"io"
)

// Codec compresses and decompresses opaque blobs. Implementations must
// guarantee Decompress(Compress(b)) == b byte for byte.
type Codec interface {
	// Compress returns the encoded form of blob.
	Compress(blob []byte) ([]byte, error)
	// Decompress reverses Compress.
	Decompress(blob []byte) ([]byte, error)
	// Compresses reports whether the codec actually shrinks data.
	// A store uses it to pick the compressed or raw collection.
	Compresses() bool
}

// GzipCodec applies gzip, mirroring the stream compression the store
// was designed around.
type GzipCodec struct{}

// Compress gzips blob. On error the original blob is returned.
func (GzipCodec) Compress(blob []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(blob); err != nil {
		zw.Close()
		return blob, err
	}
	if err := zw.Close(); err != nil {
		return blob, err
	}
	return buf.Bytes(), nil
}

// Decompress gunzips blob. On error the original blob is returned, so
// a blob that was stored uncompressed passes through.
func (GzipCodec) Decompress(blob []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return blob, err
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		zr.Close()
		return blob, err
	}
	if err := zr.Close(); err != nil {
		return blob, err
	}
	return out, nil
}

// Compresses always reports true.
func (GzipCodec) Compresses() bool { return true }

// PassthroughCodec stores blobs unmodified. It stands in when the
// compression capability is disabled.
type PassthroughCodec struct{}

// Compress returns blob unchanged.
func (PassthroughCodec) Compress(blob []byte) ([]byte, error) { return blob, nil }

// Decompress returns blob unchanged.
func (PassthroughCodec) Decompress(blob []byte) ([]byte, error) { return blob, nil }

// Compresses always reports false.
func (PassthroughCodec) Compresses() bool { return false }
