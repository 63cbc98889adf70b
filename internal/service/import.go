package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ravewall/internal/cache"
	"ravewall/internal/model"
	"ravewall/internal/queue"
	"ravewall/internal/repository"
	"ravewall/internal/scraper"
)

// ImportService runs the comment import pipeline: fetch raw comments from
// the scraping service, normalize, optionally filter, persist each comment
// sequentially with dedup retries, and finalize the import record.
type ImportService struct {
	scraperClient scraper.Client
	importRepo    repository.ImportRepository
	commentRepo   repository.CommentRepository
	publisher     queue.Publisher
	limiter       cache.RateLimiter
	now           func() time.Time
}

func NewImportService(
	scraperClient scraper.Client,
	importRepo repository.ImportRepository,
	commentRepo repository.CommentRepository,
	publisher queue.Publisher,
	limiter cache.RateLimiter,
) *ImportService {
	return &ImportService{
		scraperClient: scraperClient,
		importRepo:    importRepo,
		commentRepo:   commentRepo,
		publisher:     publisher,
		limiter:       limiter,
		now:           time.Now,
	}
}

// Run executes one full import attempt for the caller. An import record is
// created up front so failed attempts stay auditable; it reaches exactly one
// terminal status. Per-comment persistence failures land in the response's
// Errors list without aborting the batch; adapter-level failures abort the
// import and flip the record to failed.
func (s *ImportService) Run(ctx context.Context, userID int64, req model.ImportRequest) (*model.ImportResponse, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, userID)
		if err != nil {
			// A broken limiter should not block imports
			log.Printf("[ImportService] Rate limiter error: user=%d err=%v", userID, err)
		} else if !allowed {
			return nil, model.ErrImportRateLimited
		}
	}

	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = model.DefaultMaxComments
	}

	title := req.Title
	if title == "" {
		title = req.URL
	}

	rec := &model.ImportRecord{
		UserID:      userID,
		SourceURL:   req.URL,
		Title:       title,
		MaxComments: maxItems,
		UseFilter:   req.UseFilter,
		Status:      model.ImportStatusProcessing,
	}
	if err := s.importRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create import record: %w", err)
	}

	log.Printf("[ImportService] Import started: import=%d user=%d url=%s maxItems=%d filter=%t",
		rec.ID, userID, req.URL, maxItems, req.UseFilter)

	raw, err := s.scraperClient.FetchComments(ctx, req.URL, maxItems)
	if err != nil {
		s.fail(ctx, rec.ID)
		return nil, err
	}

	// Every normalized comment counts as found, including ones dropped by
	// the too-short check or the relevance filter.
	totalFound := len(raw)
	importTime := s.now()

	normalized := make([]model.NormalizedComment, 0, len(raw))
	for _, r := range raw {
		c := NormalizeComment(r, importTime)
		if !IsStorableComment(c) {
			continue
		}
		normalized = append(normalized, c)
	}

	if req.UseFilter {
		before := len(normalized)
		normalized = FilterComments(normalized)
		log.Printf("[ImportService] Relevance filter: import=%d kept=%d dropped=%d",
			rec.ID, len(normalized), before-len(normalized))
	}

	hasPrior, err := s.importRepo.HasOtherImportOfURL(ctx, userID, req.URL, rec.ID)
	if err != nil {
		s.fail(ctx, rec.ID)
		return nil, err
	}

	dedup := NewSuffixDeduplicator(rec.ID, hasPrior, s.now)

	// Sequential persistence in upstream order; each insert is awaited
	// before the next begins so the dedup check/insert pair never races
	// within this import.
	saved := make([]model.Comment, 0, len(normalized))
	errs := []string{}
	for _, c := range normalized {
		stored, err := s.persistComment(ctx, userID, rec.ID, c, dedup)
		if err != nil {
			errs = append(errs, fmt.Sprintf("comment %s: %v", c.ExternalID, err))
			continue
		}
		saved = append(saved, *stored)
	}

	if err := s.importRepo.Finalize(ctx, rec.ID, model.ImportStatusCompleted, totalFound, len(saved)); err != nil {
		log.Printf("[ImportService] Finalize FAILED: import=%d err=%v", rec.ID, err)
	}

	log.Printf("[ImportService] Import completed: import=%d found=%d saved=%d errors=%d",
		rec.ID, totalFound, len(saved), len(errs))

	// Kick off avatar archiving (after the terminal update, best-effort).
	if s.publisher != nil && len(saved) > 0 {
		event := queue.NewImportCompletedEvent(rec.ID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamImports, event); err != nil {
			log.Printf("[ImportService] Failed to publish ImportCompleted event: %v", err)
		}
	}

	return &model.ImportResponse{
		Success:    true,
		TotalFound: totalFound,
		Saved:      len(saved),
		Errors:     errs,
		ImportID:   rec.ID,
		Comments:   saved,
	}, nil
}

// persistComment tries each candidate external id in order, moving on only
// when the typed duplicate error comes back from the repository.
func (s *ImportService) persistComment(ctx context.Context, userID, importID int64, c model.NormalizedComment, dedup Deduplicator) (*model.Comment, error) {
	var lastErr error
	for _, candidate := range dedup.Candidates(c.ExternalID) {
		comment := &model.Comment{
			UserID:     userID,
			ImportID:   importID,
			ExternalID: candidate,
			Username:   c.Username,
			Text:       c.Text,
			LikeCount:  c.LikeCount,
			ReplyCount: c.ReplyCount,
			Verified:   c.Verified,
			AvatarURL:  c.AvatarURL,
			PostedAt:   c.PostedAt,
		}

		err := s.commentRepo.Create(ctx, comment)
		if err == nil {
			return comment, nil
		}
		if !errors.Is(err, model.ErrDuplicateExternalID) {
			return nil, err
		}
		log.Printf("[ImportService] Duplicate external id: import=%d candidate=%s", importID, candidate)
		lastErr = err
	}
	return nil, lastErr
}

// fail flips the import record to failed. Errors here are logged only; the
// original pipeline error is what the caller needs to see.
func (s *ImportService) fail(ctx context.Context, importID int64) {
	if err := s.importRepo.Finalize(ctx, importID, model.ImportStatusFailed, 0, 0); err != nil {
		log.Printf("[ImportService] Failed to mark import failed: import=%d err=%v", importID, err)
	}
}

// List returns the caller's import records, newest first.
func (s *ImportService) List(ctx context.Context, userID int64) ([]model.ImportRecord, error) {
	return s.importRepo.ListByUser(ctx, userID)
}

// GetComments returns the stored comments of one import.
func (s *ImportService) GetComments(ctx context.Context, importID, userID int64) ([]model.Comment, error) {
	if _, err := s.importRepo.GetByID(ctx, importID, userID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByImport(ctx, importID, userID)
}

// Delete removes an import and, via DB cascade, its comments. Archived
// avatar objects are cleaned up asynchronously; their keys are collected
// before the rows disappear.
func (s *ImportService) Delete(ctx context.Context, importID, userID int64) error {
	var avatarKeys []string
	if s.publisher != nil {
		comments, err := s.commentRepo.ListByImport(ctx, importID, userID)
		if err != nil {
			log.Printf("[ImportService] Failed to collect avatar keys: import=%d err=%v", importID, err)
		} else {
			for _, c := range comments {
				if c.AvatarKey != nil && *c.AvatarKey != "" {
					avatarKeys = append(avatarKeys, *c.AvatarKey)
				}
			}
		}
	}

	if err := s.importRepo.Delete(ctx, importID, userID); err != nil {
		return err
	}

	if s.publisher != nil && len(avatarKeys) > 0 {
		event := queue.NewImportDeletedEvent(importID, userID, avatarKeys)
		if _, err := s.publisher.Publish(ctx, queue.StreamImports, event); err != nil {
			log.Printf("[ImportService] Failed to publish ImportDeleted event: %v", err)
		}
	}

	log.Printf("[ImportService] Import deleted: import=%d user=%d", importID, userID)
	return nil
}
