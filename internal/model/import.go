package model

import (
	"errors"
	"time"
)

// Import statuses. Transitions are forward-only:
// pending -> processing -> completed|failed. Once terminal, counts are frozen.
const (
	ImportStatusPending    = "pending"
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
)

// Import limits
const (
	DefaultMaxComments = 20
	MaxCommentsCap     = 1000
)

// ImportRecord tracks one attempt to scrape comments from a single post URL.
type ImportRecord struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"-"`
	SourceURL   string     `db:"source_url" json:"source_url"`
	Title       string     `db:"title" json:"title"`
	MaxComments int        `db:"max_comments" json:"max_comments"`
	UseFilter   bool       `db:"use_filter" json:"use_filter"`
	Status      string     `db:"status" json:"status"`
	TotalFound  int        `db:"total_found" json:"total_found"`
	TotalSaved  int        `db:"total_saved" json:"total_saved"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// ImportRequest is the request body for starting an import.
type ImportRequest struct {
	URL       string `json:"url"`
	MaxItems  int    `json:"maxItems,omitempty"`
	UseFilter bool   `json:"useFilter,omitempty"`
	Title     string `json:"title,omitempty"`
}

// ImportResponse is returned after an import attempt completes.
// Partial failure is still a success: per-comment problems land in Errors.
type ImportResponse struct {
	Success    bool      `json:"success"`
	TotalFound int       `json:"totalFound"`
	Saved      int       `json:"saved"`
	Errors     []string  `json:"errors"`
	ImportID   int64     `json:"importId"`
	Comments   []Comment `json:"comments"`
}

// Import errors
var (
	ErrImportNotFound    = errors.New("import not found")
	ErrInvalidPostURL    = errors.New("unrecognized post url format")
	ErrImportRateLimited = errors.New("import rate limit exceeded")
)
