package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"ravewall/internal/model"
	"ravewall/internal/queue"
)

// AvatarArchiver copies an upstream avatar into durable storage.
// This abstracts the storage service so workers can be tested without R2.
type AvatarArchiver interface {
	// Archive returns the public URL and object key of the stored copy.
	Archive(ctx context.Context, sourceURL string) (url, key string, err error)
	// DeleteObject removes an archived object by key.
	DeleteObject(ctx context.Context, key string) error
}

// CommentStore is the slice of the comment repository the worker needs.
type CommentStore interface {
	// ListUnarchivedAvatars returns an import's comments whose avatars still
	// point at the upstream CDN.
	ListUnarchivedAvatars(ctx context.Context, importID int64) ([]model.Comment, error)
	// SetAvatar rewrites a comment's avatar to the archived copy.
	SetAvatar(ctx context.Context, commentID int64, url, key string) error
}

// Handler processes import events from the queue.
type Handler struct {
	archiver AvatarArchiver
	comments CommentStore
}

// NewHandler creates a new event handler.
func NewHandler(archiver AvatarArchiver, comments CommentStore) *Handler {
	return &Handler{
		archiver: archiver,
		comments: comments,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ImportEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventImportCompleted:
		err = h.handleImportCompleted(ctx, event)
	case queue.EventImportDeleted:
		err = h.handleImportDeleted(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleImportCompleted archives every unarchived avatar of the import.
// Per-avatar failures are logged and skipped; the comment simply keeps its
// upstream URL until a later pass or forever, which is no worse than before.
func (h *Handler) handleImportCompleted(ctx context.Context, event queue.ImportEvent) error {
	log.Printf("[Worker] ImportCompleted: import=%d user=%d", event.ImportID, event.UserID)

	comments, err := h.comments.ListUnarchivedAvatars(ctx, event.ImportID)
	if err != nil {
		return fmt.Errorf("list unarchived avatars: %w", err)
	}

	log.Printf("[Worker] ImportCompleted: archiving %d avatars", len(comments))

	var failCount int
	for _, c := range comments {
		url, key, err := h.archiver.Archive(ctx, c.AvatarURL)
		if err != nil {
			log.Printf("[Worker] Avatar archive failed: comment=%d err=%v", c.ID, err)
			failCount++
			continue
		}
		if err := h.comments.SetAvatar(ctx, c.ID, url, key); err != nil {
			log.Printf("[Worker] Avatar update failed: comment=%d err=%v", c.ID, err)
			// Orphaned object; remove it rather than leak storage
			if delErr := h.archiver.DeleteObject(ctx, key); delErr != nil {
				log.Printf("[Worker] Orphan cleanup failed: key=%s err=%v", key, delErr)
			}
			failCount++
		}
	}

	if failCount > 0 {
		log.Printf("[Worker] ImportCompleted: import=%d archived=%d failed=%d",
			event.ImportID, len(comments)-failCount, failCount)
	}
	return nil
}

// handleImportDeleted removes the archived avatar objects of a deleted import.
func (h *Handler) handleImportDeleted(ctx context.Context, event queue.ImportEvent) error {
	log.Printf("[Worker] ImportDeleted: import=%d keys=%d", event.ImportID, len(event.AvatarKeys))

	for _, key := range event.AvatarKeys {
		if err := h.archiver.DeleteObject(ctx, key); err != nil {
			log.Printf("[Worker] Avatar delete failed: key=%s err=%v", key, err)
			// Continue with remaining keys
		}
	}
	return nil
}
