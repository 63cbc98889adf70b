package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"ravewall/internal/model"
)

type mockTestimonialRepository struct {
	createFn       func(ctx context.Context, tx *sqlx.Tx, testimonial *model.Testimonial) error
	getByIDFn      func(ctx context.Context, id, userID int64) (*model.Testimonial, error)
	listByUserFn   func(ctx context.Context, userID int64, status string) ([]model.Testimonial, error)
	listApprovedFn func(ctx context.Context, userID int64, limit int) ([]model.Testimonial, error)
	updateStatusFn func(ctx context.Context, id, userID int64, status string) (*model.Testimonial, error)
	deleteFn       func(ctx context.Context, id, userID int64) error
}

func (m *mockTestimonialRepository) Create(ctx context.Context, tx *sqlx.Tx, testimonial *model.Testimonial) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, testimonial)
	}
	testimonial.ID = 1
	return nil
}

func (m *mockTestimonialRepository) GetByID(ctx context.Context, id, userID int64) (*model.Testimonial, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id, userID)
	}
	return nil, model.ErrTestimonialNotFound
}

func (m *mockTestimonialRepository) ListByUser(ctx context.Context, userID int64, status string) ([]model.Testimonial, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, status)
	}
	return nil, nil
}

func (m *mockTestimonialRepository) ListApproved(ctx context.Context, userID int64, limit int) ([]model.Testimonial, error) {
	if m.listApprovedFn != nil {
		return m.listApprovedFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockTestimonialRepository) UpdateStatus(ctx context.Context, id, userID int64, status string) (*model.Testimonial, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, userID, status)
	}
	return nil, model.ErrTestimonialNotFound
}

func (m *mockTestimonialRepository) Delete(ctx context.Context, id, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, userID)
	}
	return nil
}

// mockWidgetCache records invalidations and serves a fixed payload.
type mockWidgetCache struct {
	payload     []model.Testimonial
	hit         bool
	sets        int
	invalidated []int64
}

func (m *mockWidgetCache) Get(ctx context.Context, userID int64) ([]model.Testimonial, bool, error) {
	return m.payload, m.hit, nil
}

func (m *mockWidgetCache) Set(ctx context.Context, userID int64, testimonials []model.Testimonial) error {
	m.sets++
	m.payload = testimonials
	return nil
}

func (m *mockWidgetCache) Invalidate(ctx context.Context, userID int64) error {
	m.invalidated = append(m.invalidated, userID)
	return nil
}

// mockTxRunner invokes the function directly; repository mocks ignore the tx.
type mockTxRunner struct {
	err  error
	runs int
}

func (m *mockTxRunner) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	m.runs++
	if m.err != nil {
		return m.err
	}
	return fn(nil)
}

// =============================================================================
// PROMOTE TESTS
// =============================================================================

func TestTestimonialService_Promote_SuccessThenConflict(t *testing.T) {
	promoted := false
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
			return &model.Comment{
				ID:         commentID,
				UserID:     userID,
				ImportID:   3,
				ExternalID: "c1",
				Username:   "alice",
				Text:       "love this product",
				LikeCount:  4,
				Verified:   true,
				AvatarURL:  "https://cdn.example.com/a.jpg",
				Promoted:   promoted,
			}, nil
		},
		markPromotedFn: func(ctx context.Context, tx *sqlx.Tx, commentID, testimonialID int64) error {
			promoted = true
			return nil
		},
	}
	importRepo := &mockImportRepository{
		getByIDFn: func(ctx context.Context, importID, userID int64) (*model.ImportRecord, error) {
			return &model.ImportRecord{ID: importID, UserID: userID, SourceURL: "https://instagram.com/p/Cxyz/"}, nil
		},
	}

	var created []*model.Testimonial
	testimonialRepo := &mockTestimonialRepository{
		createFn: func(ctx context.Context, tx *sqlx.Tx, testimonial *model.Testimonial) error {
			testimonial.ID = int64(len(created) + 1)
			created = append(created, testimonial)
			return nil
		},
	}
	txRunner := &mockTxRunner{}
	svc := NewTestimonialService(testimonialRepo, commentRepo, importRepo, txRunner, nil)

	// First call promotes
	resp, err := svc.Promote(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Testimonial.AuthorName != "alice" {
		t.Errorf("author = %q, want alice", resp.Testimonial.AuthorName)
	}
	if resp.Testimonial.Content != "love this product" {
		t.Errorf("content = %q, want comment text", resp.Testimonial.Content)
	}
	if resp.Testimonial.Rating != model.DefaultRating {
		t.Errorf("rating = %d, want %d", resp.Testimonial.Rating, model.DefaultRating)
	}
	if resp.Testimonial.Source != model.SourceInstagram {
		t.Errorf("source = %q, want instagram", resp.Testimonial.Source)
	}
	if resp.Testimonial.Status != model.TestimonialStatusPending {
		t.Errorf("status = %q, want pending", resp.Testimonial.Status)
	}
	if resp.Testimonial.Provenance.SourceURL != "https://instagram.com/p/Cxyz/" {
		t.Errorf("provenance source url = %q", resp.Testimonial.Provenance.SourceURL)
	}
	if resp.Testimonial.Provenance.CommentID != "c1" || !resp.Testimonial.Provenance.Verified {
		t.Errorf("provenance metadata = %+v", resp.Testimonial.Provenance)
	}
	if !resp.Comment.Promoted {
		t.Error("response comment should be flagged promoted")
	}
	if resp.Comment.TestimonialID == nil || *resp.Comment.TestimonialID != resp.Testimonial.ID {
		t.Error("response comment should reference the new testimonial")
	}
	if txRunner.runs != 1 {
		t.Errorf("transactions = %d, want 1", txRunner.runs)
	}

	// Second call hits the promoted flag
	_, err = svc.Promote(context.Background(), 5, 10)
	if !errors.Is(err, model.ErrAlreadyPromoted) {
		t.Fatalf("expected ErrAlreadyPromoted on repeat, got: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("testimonials created = %d, want exactly 1", len(created))
	}
}

func TestTestimonialService_Promote_TxFailureReturnsError(t *testing.T) {
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, UserID: userID, ImportID: 3, Username: "alice", Text: "great stuff"}, nil
		},
	}
	importRepo := &mockImportRepository{
		getByIDFn: func(ctx context.Context, importID, userID int64) (*model.ImportRecord, error) {
			return &model.ImportRecord{ID: importID, UserID: userID, SourceURL: "https://instagram.com/p/Cxyz/"}, nil
		},
	}
	txRunner := &mockTxRunner{err: errors.New("begin transaction: connection lost")}
	svc := NewTestimonialService(&mockTestimonialRepository{}, commentRepo, importRepo, txRunner, nil)

	if _, err := svc.Promote(context.Background(), 5, 10); err == nil {
		t.Fatal("expected transaction error to surface")
	}
}

func TestTestimonialService_Promote_CommentNotFound(t *testing.T) {
	svc := NewTestimonialService(&mockTestimonialRepository{}, &mockCommentRepository{}, &mockImportRepository{}, nil, nil)

	_, err := svc.Promote(context.Background(), 99, 10)
	if !errors.Is(err, model.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got: %v", err)
	}
}

func TestTestimonialService_Promote_AlreadyPromoted(t *testing.T) {
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, UserID: userID, Promoted: true}, nil
		},
	}
	svc := NewTestimonialService(&mockTestimonialRepository{}, commentRepo, &mockImportRepository{}, nil, nil)

	_, err := svc.Promote(context.Background(), 5, 10)
	if !errors.Is(err, model.ErrAlreadyPromoted) {
		t.Fatalf("expected ErrAlreadyPromoted, got: %v", err)
	}
}

func TestTestimonialService_Promote_ImportMissing(t *testing.T) {
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, UserID: userID, ImportID: 3}, nil
		},
	}
	svc := NewTestimonialService(&mockTestimonialRepository{}, commentRepo, &mockImportRepository{}, nil, nil)

	_, err := svc.Promote(context.Background(), 5, 10)
	if !errors.Is(err, model.ErrImportNotFound) {
		t.Fatalf("expected ErrImportNotFound, got: %v", err)
	}
}

// =============================================================================
// CREATE / LIST / UPDATE TESTS
// =============================================================================

func TestTestimonialService_Create_ContentRequired(t *testing.T) {
	svc := NewTestimonialService(&mockTestimonialRepository{}, &mockCommentRepository{}, &mockImportRepository{}, nil, nil)

	_, err := svc.Create(context.Background(), 10, model.CreateTestimonialRequest{
		AuthorName: "Alice",
	})
	if !errors.Is(err, model.ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got: %v", err)
	}
}

func TestTestimonialService_Create_Success(t *testing.T) {
	testimonialRepo := &mockTestimonialRepository{}
	txRunner := &mockTxRunner{}
	svc := NewTestimonialService(testimonialRepo, &mockCommentRepository{}, &mockImportRepository{}, txRunner, nil)

	testimonial, err := svc.Create(context.Background(), 10, model.CreateTestimonialRequest{
		AuthorName: "Bob",
		Content:    "worked great for us",
		Rating:     9, // out of range, clamped to default
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if testimonial.Rating != model.DefaultRating {
		t.Errorf("rating = %d, want clamped default %d", testimonial.Rating, model.DefaultRating)
	}
	if testimonial.Source != model.SourceManual {
		t.Errorf("source = %q, want manual", testimonial.Source)
	}
	if testimonial.Status != model.TestimonialStatusPending {
		t.Errorf("status = %q, want pending", testimonial.Status)
	}
	if txRunner.runs != 1 {
		t.Errorf("transactions = %d, want 1", txRunner.runs)
	}
}

func TestTestimonialService_List_InvalidStatus(t *testing.T) {
	svc := NewTestimonialService(&mockTestimonialRepository{}, &mockCommentRepository{}, &mockImportRepository{}, nil, nil)

	_, err := svc.List(context.Background(), 10, "published")
	if !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
}

func TestTestimonialService_List_StatusFilterPassedThrough(t *testing.T) {
	var gotStatus string
	repo := &mockTestimonialRepository{
		listByUserFn: func(ctx context.Context, userID int64, status string) ([]model.Testimonial, error) {
			gotStatus = status
			return []model.Testimonial{{ID: 1}}, nil
		},
	}
	svc := NewTestimonialService(repo, &mockCommentRepository{}, &mockImportRepository{}, nil, nil)

	out, err := svc.List(context.Background(), 10, model.TestimonialStatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStatus != model.TestimonialStatusApproved {
		t.Errorf("status = %q, want approved", gotStatus)
	}
	if len(out) != 1 {
		t.Errorf("expected 1 testimonial, got %d", len(out))
	}
}

func TestTestimonialService_UpdateStatus_InvalidatesWidget(t *testing.T) {
	repo := &mockTestimonialRepository{
		updateStatusFn: func(ctx context.Context, id, userID int64, status string) (*model.Testimonial, error) {
			return &model.Testimonial{ID: id, UserID: userID, Status: status}, nil
		},
	}
	widgetCache := &mockWidgetCache{}
	svc := NewTestimonialService(repo, &mockCommentRepository{}, &mockImportRepository{}, nil, widgetCache)

	_, err := svc.UpdateStatus(context.Background(), 1, 10, model.UpdateTestimonialRequest{
		Status: model.TestimonialStatusApproved,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(widgetCache.invalidated) != 1 || widgetCache.invalidated[0] != 10 {
		t.Errorf("invalidations = %v, want [10]", widgetCache.invalidated)
	}
}

func TestTestimonialService_UpdateStatus_InvalidStatus(t *testing.T) {
	svc := NewTestimonialService(&mockTestimonialRepository{}, &mockCommentRepository{}, &mockImportRepository{}, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), 1, 10, model.UpdateTestimonialRequest{Status: "live"})
	if !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
}

// =============================================================================
// WIDGET FEED TESTS
// =============================================================================

func TestTestimonialService_WidgetFeed_CacheHit(t *testing.T) {
	repoCalled := false
	repo := &mockTestimonialRepository{
		listApprovedFn: func(ctx context.Context, userID int64, limit int) ([]model.Testimonial, error) {
			repoCalled = true
			return nil, nil
		},
	}
	widgetCache := &mockWidgetCache{
		payload: []model.Testimonial{{ID: 7, Status: model.TestimonialStatusApproved}},
		hit:     true,
	}
	svc := NewTestimonialService(repo, &mockCommentRepository{}, &mockImportRepository{}, nil, widgetCache)

	out, err := svc.WidgetFeed(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repoCalled {
		t.Error("repository should not be hit on cache hit")
	}
	if len(out) != 1 || out[0].ID != 7 {
		t.Errorf("unexpected feed: %+v", out)
	}
}

func TestTestimonialService_WidgetFeed_CacheMissFillsCache(t *testing.T) {
	repo := &mockTestimonialRepository{
		listApprovedFn: func(ctx context.Context, userID int64, limit int) ([]model.Testimonial, error) {
			if limit != WidgetFeedLimit {
				t.Errorf("limit = %d, want %d", limit, WidgetFeedLimit)
			}
			return []model.Testimonial{{ID: 1}, {ID: 2}}, nil
		},
	}
	widgetCache := &mockWidgetCache{}
	svc := NewTestimonialService(repo, &mockCommentRepository{}, &mockImportRepository{}, nil, widgetCache)

	out, err := svc.WidgetFeed(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 testimonials, got %d", len(out))
	}
	if widgetCache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", widgetCache.sets)
	}
}

func TestTestimonialService_WidgetFeed_NoCacheConfigured(t *testing.T) {
	repo := &mockTestimonialRepository{
		listApprovedFn: func(ctx context.Context, userID int64, limit int) ([]model.Testimonial, error) {
			return []model.Testimonial{{ID: 1}}, nil
		},
	}
	svc := NewTestimonialService(repo, &mockCommentRepository{}, &mockImportRepository{}, nil, nil)

	out, err := svc.WidgetFeed(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("expected 1 testimonial, got %d", len(out))
	}
}
