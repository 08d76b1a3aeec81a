package media

import (
	"bytes"
	"image"
	"image/jpeg"

	// Registered decoders for the formats the UI accepts.
	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	// optimizeThreshold is the size below which images are stored as-is.
	optimizeThreshold = 50 * 1024
	// maxDimension bounds the longer side of an optimized image.
	maxDimension = 800
	// jpegQuality is the re-encode quality for optimized images.
	jpegQuality = 85
)

// OptimizeImage downscales and re-encodes large images before storage.
// Images of 50KB or less pass through untouched. Larger images are
// decoded, scaled so the longer side is at most 800px preserving
// aspect ratio, and re-encoded as JPEG at quality 85. Any decode or
// encode failure returns the original bytes unchanged.
func OptimizeImage(blob []byte) []byte {
	if len(blob) <= optimizeThreshold {
		return blob
	}

	src, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return blob
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxDimension || height > maxDimension {
		if width > height {
			height = height * maxDimension / width
			width = maxDimension
		} else {
			width = width * maxDimension / height
			height = maxDimension
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return blob
	}
	return buf.Bytes()
}
