package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Testimonial moderation statuses
const (
	TestimonialStatusPending  = "pending"
	TestimonialStatusApproved = "approved"
	TestimonialStatusHidden   = "hidden"
)

// Testimonial sources
const (
	SourceInstagram = "instagram"
	SourceManual    = "manual"
)

// DefaultRating is used when the source provides no rating.
const DefaultRating = 5

// Provenance captures the original comment metadata carried into a
// promoted testimonial. Stored as a JSONB column.
type Provenance struct {
	CommentID  string    `json:"comment_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Verified   bool      `json:"verified,omitempty"`
	LikeCount  int       `json:"like_count,omitempty"`
	ReplyCount int       `json:"reply_count,omitempty"`
	PostedAt   time.Time `json:"posted_at,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (p Provenance) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (p *Provenance) Scan(src interface{}) error {
	if src == nil {
		*p = Provenance{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("provenance: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, p)
}

// Testimonial is a curated quotation eligible for display on the widget.
type Testimonial struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"-"`
	AuthorName  string     `db:"author_name" json:"author_name"`
	AuthorEmail string     `db:"author_email" json:"author_email"`
	Content     string     `db:"content" json:"content"`
	Rating      int        `db:"rating" json:"rating"`
	Source      string     `db:"source" json:"source"`
	Status      string     `db:"status" json:"status"`
	Provenance  Provenance `db:"provenance" json:"provenance"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateTestimonialRequest is the request body for manual testimonial creation.
type CreateTestimonialRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
	Rating      int    `json:"rating"`
}

// UpdateTestimonialRequest changes a testimonial's moderation status.
type UpdateTestimonialRequest struct {
	Status string `json:"status"`
}

// PromoteResponse bundles the created testimonial with the updated comment.
type PromoteResponse struct {
	Testimonial *Testimonial `json:"testimonial"`
	Comment     *Comment     `json:"comment"`
}

// IsValidTestimonialStatus reports whether s is a recognized moderation status.
func IsValidTestimonialStatus(s string) bool {
	switch s {
	case TestimonialStatusPending, TestimonialStatusApproved, TestimonialStatusHidden:
		return true
	}
	return false
}

// Testimonial errors
var (
	ErrTestimonialNotFound = errors.New("testimonial not found")
	ErrAlreadyPromoted     = errors.New("comment already promoted to a testimonial")
	ErrInvalidStatus       = errors.New("invalid testimonial status")
	ErrContentRequired     = errors.New("testimonial content is required")
)
