package media

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// IsDataURI reports whether s is a base64 data URI, the inline form
// media takes before it is migrated into the blob store.
func IsDataURI(s string) bool {
	return s != "" && strings.HasPrefix(s, "data:") && strings.Contains(s, "base64,")
}

// ContentType extracts the MIME type from a data URI prefix. It
// returns "" when the URI carries no type.
func ContentType(dataURI string) string {
	if !strings.HasPrefix(dataURI, "data:") {
		return ""
	}
	rest := dataURI[len("data:"):]
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		return rest[:i]
	}
	return ""
}

// FromDataURI decodes a base64 data URI into raw bytes and its content
// type. When contentType is non-empty it overrides the type parsed
// from the URI prefix.
func FromDataURI(dataURI, contentType string) ([]byte, string, error) {
	payload := dataURI
	if i := strings.Index(dataURI, "base64,"); i >= 0 {
		payload = dataURI[i+len("base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data uri: %w", err)
	}
	if contentType == "" {
		contentType = ContentType(dataURI)
	}
	return raw, contentType, nil
}

// ToDataURI encodes raw bytes as a base64 data URI with the given
// content type. ToDataURI and FromDataURI round-trip losslessly.
func ToDataURI(blob []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(blob)
}
