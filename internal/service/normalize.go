package service

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"ravewall/internal/model"
	"ravewall/internal/scraper"
)

// FallbackUsername is used when the upstream record carries no author handle.
const FallbackUsername = "instagram_user"

// NormalizeComment maps one raw upstream comment into the canonical shape.
// Field variants across scraper API versions resolve first-present-wins:
// text over message for the body; missing handles, avatars and timestamps
// fall back to placeholders. Engagement counts default to 0 when the schema
// version omits them; that is an upstream limitation, not an error.
func NormalizeComment(raw scraper.RawComment, now time.Time) model.NormalizedComment {
	text := raw.Text
	if text == "" {
		text = raw.Message
	}

	username := raw.OwnerUsername
	if username == "" {
		username = FallbackUsername
	}

	postedAt := now
	if raw.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			postedAt = ts
		}
	}

	externalID := raw.ID
	if externalID == "" {
		externalID = generatedCommentID(now)
	}

	likeCount := 0
	if raw.LikesCount != nil {
		likeCount = *raw.LikesCount
	}
	replyCount := 0
	if raw.RepliesCount != nil {
		replyCount = *raw.RepliesCount
	}

	return model.NormalizedComment{
		ExternalID: externalID,
		Username:   username,
		Text:       text,
		LikeCount:  likeCount,
		ReplyCount: replyCount,
		Verified:   raw.OwnerIsVerified,
		AvatarURL:  raw.OwnerProfilePicURL,
		PostedAt:   postedAt,
	}
}

// IsStorableComment reports whether a normalized comment carries enough text
// to be worth a row. Too-short comments are dropped silently: counted as
// found, never as saved, and never reported as errors. Length is measured in
// runes, the same unit the relevance filter uses.
func IsStorableComment(c model.NormalizedComment) bool {
	return utf8.RuneCountInString(strings.TrimSpace(c.Text)) >= model.MinCommentTextLength
}

// generatedCommentID is the placeholder for upstream records without an id.
func generatedCommentID(now time.Time) string {
	return fmt.Sprintf("comment_%d_%d", now.UnixNano(), rand.Intn(1_000_000))
}
