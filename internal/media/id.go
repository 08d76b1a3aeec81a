package media

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// idAlphabet keeps ids lowercase base36 so they are safe in composite
// store keys and share URLs.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID produces a media identifier of the form
// {unix-ms}_{8 random chars}. The id carries no type information; the
// blob store prefixes it with the media kind when building a storage
// key. The timestamp plus the random tail make collisions within one
// client vanishingly unlikely.
func NewID() string {
	tail := gonanoid.MustGenerate(idAlphabet, 8)
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), tail)
}
