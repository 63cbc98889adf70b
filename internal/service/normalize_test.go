package service

import (
	"strings"
	"testing"
	"time"

	"ravewall/internal/model"
	"ravewall/internal/scraper"
)

func TestNormalizeComment_FieldVariants(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	likes := 7
	replies := 2

	tests := []struct {
		name string
		raw  scraper.RawComment
		want model.NormalizedComment
	}{
		{
			name: "text field wins over message",
			raw: scraper.RawComment{
				ID:            "c1",
				Text:          "from text",
				Message:       "from message",
				OwnerUsername: "alice",
				Timestamp:     "2025-05-30T10:00:00Z",
				LikesCount:    &likes,
				RepliesCount:  &replies,
			},
			want: model.NormalizedComment{
				ExternalID: "c1",
				Username:   "alice",
				Text:       "from text",
				LikeCount:  7,
				ReplyCount: 2,
				PostedAt:   time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "message used when text is empty",
			raw: scraper.RawComment{
				ID:            "c2",
				Message:       "from message",
				OwnerUsername: "bob",
			},
			want: model.NormalizedComment{
				ExternalID: "c2",
				Username:   "bob",
				Text:       "from message",
				PostedAt:   now,
			},
		},
		{
			name: "missing username falls back to placeholder",
			raw: scraper.RawComment{
				ID:   "c3",
				Text: "no author",
			},
			want: model.NormalizedComment{
				ExternalID: "c3",
				Username:   FallbackUsername,
				Text:       "no author",
				PostedAt:   now,
			},
		},
		{
			name: "unparseable timestamp falls back to import time",
			raw: scraper.RawComment{
				ID:        "c4",
				Text:      "bad timestamp",
				Timestamp: "yesterday",
			},
			want: model.NormalizedComment{
				ExternalID: "c4",
				Username:   FallbackUsername,
				Text:       "bad timestamp",
				PostedAt:   now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeComment(tt.raw, now)
			if got != tt.want {
				t.Errorf("NormalizeComment() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeComment_GeneratesIDWhenMissing(t *testing.T) {
	now := time.Now()
	got := NormalizeComment(scraper.RawComment{Text: "no id"}, now)

	if got.ExternalID == "" {
		t.Fatal("expected a generated external id")
	}
	if !strings.HasPrefix(got.ExternalID, "comment_") {
		t.Errorf("generated id = %q, want comment_ prefix", got.ExternalID)
	}
}

func TestIsStorableComment(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"ok", false},
		{"  ab  ", false},
		{"abc", true},
		{"  abc  ", true},
		{"a perfectly normal comment", true},
		// Multibyte text counts runes, not bytes
		{"好", false},
		{"好货", false},
		{"好货快", true},
	}

	for _, tt := range tests {
		c := model.NormalizedComment{Text: tt.text}
		if got := IsStorableComment(c); got != tt.want {
			t.Errorf("IsStorableComment(%q) = %t, want %t", tt.text, got, tt.want)
		}
	}
}
