package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ravewall/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts one normalized comment. The (user_id, external_id) unique
// constraint violation comes back as the typed model.ErrDuplicateExternalID
// so callers can run their dedup retry without inspecting error strings.
func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	query := `
		INSERT INTO comments (user_id, import_id, external_id, username, text,
		                      like_count, reply_count, verified, avatar_url, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err := r.db.GetContext(ctx, comment, query,
		comment.UserID, comment.ImportID, comment.ExternalID, comment.Username,
		comment.Text, comment.LikeCount, comment.ReplyCount, comment.Verified,
		comment.AvatarURL, comment.PostedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.ErrDuplicateExternalID
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
	query := `
		SELECT id, user_id, import_id, external_id, username, text,
		       like_count, reply_count, verified, avatar_url, avatar_key,
		       posted_at, promoted, testimonial_id, created_at
		FROM comments
		WHERE id = $1 AND user_id = $2
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByImport(ctx context.Context, importID, userID int64) ([]model.Comment, error) {
	query := `
		SELECT id, user_id, import_id, external_id, username, text,
		       like_count, reply_count, verified, avatar_url, avatar_key,
		       posted_at, promoted, testimonial_id, created_at
		FROM comments
		WHERE import_id = $1 AND user_id = $2
		ORDER BY id ASC
	`
	comments := []model.Comment{}
	err := r.db.SelectContext(ctx, &comments, query, importID, userID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// MarkPromoted runs inside the promotion transaction so the flag update and
// the testimonial insert commit or roll back together.
func (r *commentRepository) MarkPromoted(ctx context.Context, tx *sqlx.Tx, commentID, testimonialID int64) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE comments
		SET promoted = TRUE, testimonial_id = $2
		WHERE id = $1 AND promoted = FALSE
	`, commentID, testimonialID)
	if err != nil {
		return fmt.Errorf("mark comment promoted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark comment promoted rows: %w", err)
	}
	if rows == 0 {
		return model.ErrAlreadyPromoted
	}
	return nil
}

func (r *commentRepository) ListUnarchivedAvatars(ctx context.Context, importID int64) ([]model.Comment, error) {
	query := `
		SELECT id, user_id, import_id, external_id, username, text,
		       like_count, reply_count, verified, avatar_url, avatar_key,
		       posted_at, promoted, testimonial_id, created_at
		FROM comments
		WHERE import_id = $1 AND avatar_url <> '' AND avatar_key IS NULL
		ORDER BY id ASC
	`
	comments := []model.Comment{}
	err := r.db.SelectContext(ctx, &comments, query, importID)
	if err != nil {
		return nil, fmt.Errorf("list unarchived avatars: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) SetAvatar(ctx context.Context, commentID int64, url, key string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE comments SET avatar_url = $2, avatar_key = $3 WHERE id = $1
	`, commentID, url, key)
	if err != nil {
		return fmt.Errorf("set comment avatar: %w", err)
	}
	return nil
}
