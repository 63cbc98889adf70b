package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"ravewall/internal/httputil"
	"ravewall/internal/model"
	"ravewall/internal/scraper"
	"ravewall/internal/service"
	"ravewall/internal/transport/http/middleware"
)

// =============================================================================
// STUBS
// =============================================================================

type stubScraperClient struct {
	comments []scraper.RawComment
	err      error
}

func (s *stubScraperClient) FetchComments(ctx context.Context, postURL string, maxItems int) ([]scraper.RawComment, error) {
	return s.comments, s.err
}

type stubImportRepository struct{}

func (s *stubImportRepository) Create(ctx context.Context, rec *model.ImportRecord) error {
	rec.ID = 1
	return nil
}

func (s *stubImportRepository) GetByID(ctx context.Context, importID, userID int64) (*model.ImportRecord, error) {
	return nil, model.ErrImportNotFound
}

func (s *stubImportRepository) ListByUser(ctx context.Context, userID int64) ([]model.ImportRecord, error) {
	return nil, nil
}

func (s *stubImportRepository) HasOtherImportOfURL(ctx context.Context, userID int64, sourceURL string, excludeImportID int64) (bool, error) {
	return false, nil
}

func (s *stubImportRepository) Finalize(ctx context.Context, importID int64, status string, totalFound, totalSaved int) error {
	return nil
}

func (s *stubImportRepository) Delete(ctx context.Context, importID, userID int64) error {
	return nil
}

type stubCommentRepository struct{}

func (s *stubCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return nil
}

func (s *stubCommentRepository) GetByID(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
	return nil, model.ErrCommentNotFound
}

func (s *stubCommentRepository) ListByImport(ctx context.Context, importID, userID int64) ([]model.Comment, error) {
	return nil, nil
}

func (s *stubCommentRepository) MarkPromoted(ctx context.Context, tx *sqlx.Tx, commentID, testimonialID int64) error {
	return nil
}

func (s *stubCommentRepository) ListUnarchivedAvatars(ctx context.Context, importID int64) ([]model.Comment, error) {
	return nil, nil
}

func (s *stubCommentRepository) SetAvatar(ctx context.Context, commentID int64, url, key string) error {
	return nil
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, int64(10))
	return req.WithContext(ctx)
}

func importHandlerWith(scraperClient scraper.Client) *ImportHandler {
	svc := service.NewImportService(scraperClient, &stubImportRepository{}, &stubCommentRepository{}, nil, nil)
	return NewImportHandler(svc)
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestImportHandler_Create_UpstreamFailureReportsStatus(t *testing.T) {
	h := importHandlerWith(&stubScraperClient{
		err: &scraper.UpstreamError{Status: 503, Body: "scraper down"},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/import", `{"url":"https://instagram.com/p/Cxyz/"}`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var resp httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if !strings.Contains(resp.Error, strconv.Itoa(503)) {
		t.Errorf("error = %q, want it to contain the upstream status 503", resp.Error)
	}
}

func TestImportHandler_Create_InvalidURL(t *testing.T) {
	h := importHandlerWith(&stubScraperClient{err: model.ErrInvalidPostURL})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/import", `{"url":"https://instagram.com/alice/"}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImportHandler_Create_MalformedUpstreamBody(t *testing.T) {
	h := importHandlerWith(&stubScraperClient{err: scraper.ErrMalformedResponse})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/import", `{"url":"https://instagram.com/p/Cxyz/"}`))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestImportHandler_Create_MissingURL(t *testing.T) {
	h := importHandlerWith(&stubScraperClient{})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/import", `{"url":"  "}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImportHandler_Create_Success(t *testing.T) {
	h := importHandlerWith(&stubScraperClient{
		comments: []scraper.RawComment{
			{ID: "c1", Text: "love this product", OwnerUsername: "alice"},
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/import", `{"url":"https://instagram.com/p/Cxyz/"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp model.ImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Success || resp.TotalFound != 1 || resp.Saved != 1 {
		t.Errorf("response = %+v, want success with 1 found and 1 saved", resp)
	}
}
