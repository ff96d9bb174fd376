package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/ytwatch/internal/shared"
)

func TestExtractIdentifier(t *testing.T) {
	tc := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{
			name:   "playlist url",
			raw:    "https://www.youtube.com/playlist?list=PLabc123_-XYZ",
			want:   "PLabc123_-XYZ",
			wantOK: true,
		},
		{
			name:   "watch url with list",
			raw:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLwatch0001&index=2",
			want:   "PLwatch0001",
			wantOK: true,
		},
		{
			name:   "mobile url",
			raw:    "https://m.youtube.com/playlist?list=OLAK5uy_kx",
			want:   "OLAK5uy_kx",
			wantOK: true,
		},
		{name: "bare id", raw: "PLbareIdentifier", want: "PLbareIdentifier", wantOK: true},
		{name: "bare id with whitespace", raw: "  PLbareIdentifier\n", want: "PLbareIdentifier", wantOK: true},
		{name: "bare id too short", raw: "PLshort", wantOK: false},
		{name: "exactly ten characters", raw: "abcdefghij", wantOK: false},
		{name: "eleven characters", raw: "abcdefghijk", want: "abcdefghijk", wantOK: true},
		{name: "url without list", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", wantOK: false},
		{name: "prose", raw: "hello there general", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractIdentifier(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractIdentifier(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseReference(t *testing.T) {
	if _, err := ParseReference("nope"); !errors.Is(err, shared.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
	if id, err := ParseReference("https://youtube.com/playlist?list=PL123"); err != nil || id != "PL123" {
		t.Errorf("unexpected result %q, %v", id, err)
	}
}
