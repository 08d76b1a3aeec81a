package media

import (
	"bytes"
	"testing"
)

func TestIsDataURI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"image data uri", "data:image/png;base64,iVBOR", true},
		{"audio data uri", "data:audio/mp3;base64,SUQz", true},
		{"plain url", "https://example.com/a.png", false},
		{"media reference id", "1700000000000_a1b2c3d4", false},
		{"empty", "", false},
		{"data prefix without base64", "data:image/png,rawbytes", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDataURI(tt.in); got != tt.want {
				t.Errorf("IsDataURI(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("data:image/jpeg;base64,abc"); got != "image/jpeg" {
		t.Errorf("ContentType = %q; want image/jpeg", got)
	}
	if got := ContentType("not a uri"); got != "" {
		t.Errorf("ContentType = %q; want empty", got)
	}
}

func TestDataURI_RoundTrip(t *testing.T) {
	blob := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0xff}

	uri := ToDataURI(blob, "image/png")
	if !IsDataURI(uri) {
		t.Fatalf("ToDataURI produced a non data URI: %q", uri)
	}

	out, contentType, err := FromDataURI(uri, "")
	if err != nil {
		t.Fatalf("FromDataURI failed: %v", err)
	}
	if !bytes.Equal(out, blob) {
		t.Error("round trip did not restore bytes")
	}
	if contentType != "image/png" {
		t.Errorf("content type = %q; want image/png", contentType)
	}
}

func TestFromDataURI_ContentTypeOverride(t *testing.T) {
	uri := ToDataURI([]byte("abc"), "image/png")
	_, contentType, err := FromDataURI(uri, "image/webp")
	if err != nil {
		t.Fatalf("FromDataURI failed: %v", err)
	}
	if contentType != "image/webp" {
		t.Errorf("content type = %q; want override image/webp", contentType)
	}
}

func TestFromDataURI_BadPayload(t *testing.T) {
	if _, _, err := FromDataURI("data:image/png;base64,!!!not-base64!!!", ""); err == nil {
		t.Error("expected error for invalid base64 payload")
	}
}
