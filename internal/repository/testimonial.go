package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ravewall/internal/model"
)

type testimonialRepository struct {
	db *sqlx.DB
}

func NewTestimonialRepository(db *sqlx.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(ctx context.Context, tx *sqlx.Tx, t *model.Testimonial) error {
	query := `
		INSERT INTO testimonials (user_id, author_name, author_email, content,
		                          rating, source, status, provenance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := tx.GetContext(ctx, t, query,
		t.UserID, t.AuthorName, t.AuthorEmail, t.Content,
		t.Rating, t.Source, t.Status, t.Provenance)
	if err != nil {
		return fmt.Errorf("insert testimonial: %w", err)
	}
	return nil
}

func (r *testimonialRepository) GetByID(ctx context.Context, id, userID int64) (*model.Testimonial, error) {
	query := `
		SELECT id, user_id, author_name, author_email, content,
		       rating, source, status, provenance, created_at, updated_at
		FROM testimonials
		WHERE id = $1 AND user_id = $2
	`
	var t model.Testimonial
	err := r.db.GetContext(ctx, &t, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrTestimonialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get testimonial: %w", err)
	}
	return &t, nil
}

func (r *testimonialRepository) ListByUser(ctx context.Context, userID int64, status string) ([]model.Testimonial, error) {
	query := `
		SELECT id, user_id, author_name, author_email, content,
		       rating, source, status, provenance, created_at, updated_at
		FROM testimonials
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
	`
	testimonials := []model.Testimonial{}
	err := r.db.SelectContext(ctx, &testimonials, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return testimonials, nil
}

func (r *testimonialRepository) ListApproved(ctx context.Context, userID int64, limit int) ([]model.Testimonial, error) {
	query := `
		SELECT id, user_id, author_name, author_email, content,
		       rating, source, status, provenance, created_at, updated_at
		FROM testimonials
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	testimonials := []model.Testimonial{}
	err := r.db.SelectContext(ctx, &testimonials, query, userID, model.TestimonialStatusApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("list approved testimonials: %w", err)
	}
	return testimonials, nil
}

func (r *testimonialRepository) UpdateStatus(ctx context.Context, id, userID int64, status string) (*model.Testimonial, error) {
	query := `
		UPDATE testimonials
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, author_name, author_email, content,
		          rating, source, status, provenance, created_at, updated_at
	`
	var t model.Testimonial
	err := r.db.GetContext(ctx, &t, query, id, userID, status)
	if err == sql.ErrNoRows {
		return nil, model.ErrTestimonialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update testimonial status: %w", err)
	}
	return &t, nil
}

func (r *testimonialRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM testimonials WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete testimonial rows: %w", err)
	}
	if rows == 0 {
		return model.ErrTestimonialNotFound
	}
	return nil
}
