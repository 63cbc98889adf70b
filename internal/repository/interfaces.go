package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"ravewall/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type ImportRepository interface {
	// Create inserts a new import record with the given initial status.
	Create(ctx context.Context, rec *model.ImportRecord) error
	GetByID(ctx context.Context, importID, userID int64) (*model.ImportRecord, error)
	// ListByUser returns the caller's import records, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.ImportRecord, error)
	// HasOtherImportOfURL reports whether the user has any other import of
	// the same source URL, excluding the given import.
	HasOtherImportOfURL(ctx context.Context, userID int64, sourceURL string, excludeImportID int64) (bool, error)
	// Finalize moves a processing import to a terminal status exactly once.
	// Counts are frozen after the first terminal transition.
	Finalize(ctx context.Context, importID int64, status string, totalFound, totalSaved int) error
	// Delete removes the import; its comments cascade at the DB level.
	Delete(ctx context.Context, importID, userID int64) error
}

type CommentRepository interface {
	// Create inserts one normalized comment. A (user_id, external_id)
	// uniqueness violation is surfaced as model.ErrDuplicateExternalID.
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, commentID, userID int64) (*model.Comment, error)
	ListByImport(ctx context.Context, importID, userID int64) ([]model.Comment, error)
	// MarkPromoted flags a comment and attaches its testimonial reference.
	// Runs inside the promotion transaction.
	MarkPromoted(ctx context.Context, tx *sqlx.Tx, commentID, testimonialID int64) error
	// ListUnarchivedAvatars returns comments of an import whose avatars have
	// not yet been copied to durable storage.
	ListUnarchivedAvatars(ctx context.Context, importID int64) ([]model.Comment, error)
	// SetAvatar rewrites a comment's avatar to the archived copy.
	SetAvatar(ctx context.Context, commentID int64, url, key string) error
}

type TestimonialRepository interface {
	// Create inserts a testimonial. Runs inside a transaction so promotion
	// can pair it with the comment flag update atomically.
	Create(ctx context.Context, tx *sqlx.Tx, t *model.Testimonial) error
	GetByID(ctx context.Context, id, userID int64) (*model.Testimonial, error)
	// ListByUser returns the caller's testimonials, optionally filtered by
	// moderation status. Empty status means all.
	ListByUser(ctx context.Context, userID int64, status string) ([]model.Testimonial, error)
	// ListApproved returns approved testimonials for the public widget feed.
	ListApproved(ctx context.Context, userID int64, limit int) ([]model.Testimonial, error)
	UpdateStatus(ctx context.Context, id, userID int64, status string) (*model.Testimonial, error)
	Delete(ctx context.Context, id, userID int64) error
}
