package model

import (
	"errors"
	"time"
)

// Comment is a stored, normalized social comment belonging to one import.
// The (user_id, external_id) pair is unique; rescans of the same post get
// suffixed external ids so every import's rows survive side by side.
type Comment struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"-"`
	ImportID      int64     `db:"import_id" json:"import_id"`
	ExternalID    string    `db:"external_id" json:"external_id"`
	Username      string    `db:"username" json:"username"`
	Text          string    `db:"text" json:"text"`
	LikeCount     int       `db:"like_count" json:"like_count"`
	ReplyCount    int       `db:"reply_count" json:"reply_count"`
	Verified      bool      `db:"verified" json:"verified"`
	AvatarURL     string    `db:"avatar_url" json:"avatar_url"`
	AvatarKey     *string   `db:"avatar_key" json:"-"`
	PostedAt      time.Time `db:"posted_at" json:"posted_at"`
	Promoted      bool      `db:"promoted" json:"promoted"`
	TestimonialID *int64    `db:"testimonial_id" json:"testimonial_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NormalizedComment is the canonical shape produced by the normalizer,
// before a row identity is assigned.
type NormalizedComment struct {
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	Text       string    `json:"text"`
	LikeCount  int       `json:"like_count"`
	ReplyCount int       `json:"reply_count"`
	Verified   bool      `json:"verified"`
	AvatarURL  string    `json:"avatar_url"`
	PostedAt   time.Time `json:"posted_at"`
}

// MinCommentTextLength is the shortest trimmed text worth storing.
// Anything shorter is dropped silently: counted as found, not saved.
const MinCommentTextLength = 3

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")

	// ErrDuplicateExternalID is the typed conflict surfaced by the repository
	// when the (user_id, external_id) uniqueness constraint fires.
	ErrDuplicateExternalID = errors.New("duplicate external comment id")
)
