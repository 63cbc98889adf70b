package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"ravewall/internal/cache"
	"ravewall/internal/model"
	"ravewall/internal/repository"
)

// WidgetFeedLimit caps the public widget payload.
const WidgetFeedLimit = 50

// TestimonialService manages testimonials: promotion of stored comments,
// manual creation, moderation, and the public widget feed.
type TestimonialService struct {
	testimonialRepo repository.TestimonialRepository
	commentRepo     repository.CommentRepository
	importRepo      repository.ImportRepository
	txRunner        repository.TxRunner
	widgetCache     cache.WidgetCache
}

func NewTestimonialService(
	testimonialRepo repository.TestimonialRepository,
	commentRepo repository.CommentRepository,
	importRepo repository.ImportRepository,
	txRunner repository.TxRunner,
	widgetCache cache.WidgetCache,
) *TestimonialService {
	return &TestimonialService{
		testimonialRepo: testimonialRepo,
		commentRepo:     commentRepo,
		importRepo:      importRepo,
		txRunner:        txRunner,
		widgetCache:     widgetCache,
	}
}

// Promote converts one stored comment into a testimonial. The testimonial
// insert and the comment's promoted-flag update run in a single transaction,
// so a comment can never end up with a testimonial it doesn't reference.
func (s *TestimonialService) Promote(ctx context.Context, commentID, userID int64) (*model.PromoteResponse, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	if comment.Promoted {
		return nil, model.ErrAlreadyPromoted
	}

	// Provenance needs the source URL, looked up via the owning import.
	imp, err := s.importRepo.GetByID(ctx, comment.ImportID, userID)
	if err != nil {
		return nil, err
	}

	testimonial := &model.Testimonial{
		UserID:      userID,
		AuthorName:  comment.Username,
		AuthorEmail: fmt.Sprintf("%s@instagram.import", comment.Username),
		Content:     comment.Text,
		Rating:      model.DefaultRating,
		Source:      model.SourceInstagram,
		Status:      model.TestimonialStatusPending,
		Provenance: model.Provenance{
			CommentID:  comment.ExternalID,
			Username:   comment.Username,
			AvatarURL:  comment.AvatarURL,
			Verified:   comment.Verified,
			LikeCount:  comment.LikeCount,
			ReplyCount: comment.ReplyCount,
			PostedAt:   comment.PostedAt,
			SourceURL:  imp.SourceURL,
		},
	}

	err = s.txRunner.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.testimonialRepo.Create(ctx, tx, testimonial); err != nil {
			return err
		}
		// The promoted=FALSE guard inside MarkPromoted closes the race where
		// two concurrent promotions both read an unpromoted comment.
		return s.commentRepo.MarkPromoted(ctx, tx, commentID, testimonial.ID)
	})
	if err != nil {
		return nil, err
	}

	comment.Promoted = true
	comment.TestimonialID = &testimonial.ID

	log.Printf("[TestimonialService] Comment promoted: user=%d comment=%d testimonial=%d",
		userID, commentID, testimonial.ID)

	return &model.PromoteResponse{
		Testimonial: testimonial,
		Comment:     comment,
	}, nil
}

// Create adds a manually submitted testimonial.
func (s *TestimonialService) Create(ctx context.Context, userID int64, req model.CreateTestimonialRequest) (*model.Testimonial, error) {
	if req.Content == "" {
		return nil, model.ErrContentRequired
	}

	rating := req.Rating
	if rating < 1 || rating > 5 {
		rating = model.DefaultRating
	}

	testimonial := &model.Testimonial{
		UserID:      userID,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Content:     req.Content,
		Rating:      rating,
		Source:      model.SourceManual,
		Status:      model.TestimonialStatusPending,
	}

	err := s.txRunner.RunInTx(ctx, func(tx *sqlx.Tx) error {
		return s.testimonialRepo.Create(ctx, tx, testimonial)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[TestimonialService] Testimonial created: user=%d testimonial=%d source=%s",
		userID, testimonial.ID, testimonial.Source)
	return testimonial, nil
}

// List returns the caller's testimonials, optionally filtered by status.
func (s *TestimonialService) List(ctx context.Context, userID int64, status string) ([]model.Testimonial, error) {
	if status != "" && !model.IsValidTestimonialStatus(status) {
		return nil, model.ErrInvalidStatus
	}
	return s.testimonialRepo.ListByUser(ctx, userID, status)
}

// UpdateStatus changes a testimonial's moderation status and invalidates the
// widget cache since the approved set may have changed.
func (s *TestimonialService) UpdateStatus(ctx context.Context, id, userID int64, req model.UpdateTestimonialRequest) (*model.Testimonial, error) {
	if !model.IsValidTestimonialStatus(req.Status) {
		return nil, model.ErrInvalidStatus
	}

	testimonial, err := s.testimonialRepo.UpdateStatus(ctx, id, userID, req.Status)
	if err != nil {
		return nil, err
	}

	s.invalidateWidget(ctx, userID)

	log.Printf("[TestimonialService] Status updated: user=%d testimonial=%d status=%s",
		userID, id, req.Status)
	return testimonial, nil
}

// Delete removes a testimonial.
func (s *TestimonialService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.testimonialRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.invalidateWidget(ctx, userID)

	log.Printf("[TestimonialService] Testimonial deleted: user=%d testimonial=%d", userID, id)
	return nil
}

// WidgetFeed returns the approved testimonials served to the public widget,
// through the short-TTL cache when one is wired.
func (s *TestimonialService) WidgetFeed(ctx context.Context, userID int64) ([]model.Testimonial, error) {
	if s.widgetCache != nil {
		cached, found, err := s.widgetCache.Get(ctx, userID)
		if err == nil && found {
			return cached, nil
		}
		if err != nil {
			log.Printf("[TestimonialService] Widget cache read error: user=%d err=%v", userID, err)
		}
	}

	testimonials, err := s.testimonialRepo.ListApproved(ctx, userID, WidgetFeedLimit)
	if err != nil {
		return nil, err
	}

	if s.widgetCache != nil {
		if err := s.widgetCache.Set(ctx, userID, testimonials); err != nil {
			log.Printf("[TestimonialService] Widget cache write error: user=%d err=%v", userID, err)
		}
	}

	return testimonials, nil
}

// invalidateWidget is best-effort; serving a briefly stale widget beats
// failing the mutation.
func (s *TestimonialService) invalidateWidget(ctx context.Context, userID int64) {
	if s.widgetCache == nil {
		return
	}
	if err := s.widgetCache.Invalidate(ctx, userID); err != nil {
		log.Printf("[TestimonialService] Widget cache invalidate error: user=%d err=%v", userID, err)
	}
}
