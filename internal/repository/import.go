package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ravewall/internal/model"
)

type importRepository struct {
	db *sqlx.DB
}

func NewImportRepository(db *sqlx.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) Create(ctx context.Context, rec *model.ImportRecord) error {
	query := `
		INSERT INTO imports (user_id, source_url, title, max_comments, use_filter, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.GetContext(ctx, rec, query,
		rec.UserID, rec.SourceURL, rec.Title, rec.MaxComments, rec.UseFilter, rec.Status)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}
	return nil
}

func (r *importRepository) GetByID(ctx context.Context, importID, userID int64) (*model.ImportRecord, error) {
	query := `
		SELECT id, user_id, source_url, title, max_comments, use_filter,
		       status, total_found, total_saved, created_at, processed_at
		FROM imports
		WHERE id = $1 AND user_id = $2
	`
	var rec model.ImportRecord
	err := r.db.GetContext(ctx, &rec, query, importID, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrImportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import: %w", err)
	}
	return &rec, nil
}

func (r *importRepository) ListByUser(ctx context.Context, userID int64) ([]model.ImportRecord, error) {
	query := `
		SELECT id, user_id, source_url, title, max_comments, use_filter,
		       status, total_found, total_saved, created_at, processed_at
		FROM imports
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	records := []model.ImportRecord{}
	err := r.db.SelectContext(ctx, &records, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return records, nil
}

func (r *importRepository) HasOtherImportOfURL(ctx context.Context, userID int64, sourceURL string, excludeImportID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM imports
			WHERE user_id = $1 AND source_url = $2 AND id <> $3
		)
	`, userID, sourceURL, excludeImportID)
	if err != nil {
		return false, fmt.Errorf("check prior imports: %w", err)
	}
	return exists, nil
}

// Finalize performs the single terminal transition of an import record.
// The status guard keeps the transition forward-only: a record that already
// reached completed or failed is never rewritten.
func (r *importRepository) Finalize(ctx context.Context, importID int64, status string, totalFound, totalSaved int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE imports
		SET status = $2, total_found = $3, total_saved = $4, processed_at = NOW()
		WHERE id = $1 AND status = $5
	`, importID, status, totalFound, totalSaved, model.ImportStatusProcessing)
	if err != nil {
		return fmt.Errorf("finalize import: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize import rows: %w", err)
	}
	if rows == 0 {
		return model.ErrImportNotFound
	}
	return nil
}

func (r *importRepository) Delete(ctx context.Context, importID, userID int64) error {
	// Comments are removed by ON DELETE CASCADE on comments.import_id.
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM imports WHERE id = $1 AND user_id = $2
	`, importID, userID)
	if err != nil {
		return fmt.Errorf("delete import: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete import rows: %w", err)
	}
	if rows == 0 {
		return model.ErrImportNotFound
	}
	return nil
}
