package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"ravewall/internal/model"
)

// Recognized post URL shapes. Tried in this order; first match wins,
// so /p/, /reel/ and /tv/ links all resolve to the same shortcode.
var postURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/p/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/reel/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/tv/([A-Za-z0-9_-]+)`),
}

// RawComment is one upstream comment record. Field names differ across
// scraper API versions; the normalizer resolves the variants.
type RawComment struct {
	ID                 string `json:"id"`
	Text               string `json:"text"`
	Message            string `json:"message"`
	OwnerUsername      string `json:"ownerUsername"`
	OwnerIsVerified    bool   `json:"ownerIsVerified"`
	OwnerProfilePicURL string `json:"ownerProfilePicUrl"`
	Timestamp          string `json:"timestamp"`
	LikesCount         *int   `json:"likesCount"`
	RepliesCount       *int   `json:"repliesCount"`
}

// UpstreamError carries the status and body of a failed scraper API call.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("scraper api returned status %d: %s", e.Status, e.Body)
}

// ErrMalformedResponse is returned when the scraper API responds with
// something other than a JSON array of comments.
var ErrMalformedResponse = errors.New("scraper response is not a comment array")

// Client fetches raw comments for a social post URL.
type Client interface {
	FetchComments(ctx context.Context, postURL string, maxItems int) ([]RawComment, error)
}

// HTTPClient calls the external scraping service over HTTP.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a scraper client for the given API endpoint.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ExtractShortcode pulls the post identifier out of a recognized URL shape.
func ExtractShortcode(postURL string) (string, error) {
	for _, pattern := range postURLPatterns {
		if m := pattern.FindStringSubmatch(postURL); m != nil {
			return m[1], nil
		}
	}
	return "", model.ErrInvalidPostURL
}

// ClampMaxItems bounds the requested comment count before it is forwarded
// upstream. Zero or negative falls back to the default.
func ClampMaxItems(maxItems int) int {
	if maxItems <= 0 {
		return model.DefaultMaxComments
	}
	if maxItems > model.MaxCommentsCap {
		return model.MaxCommentsCap
	}
	return maxItems
}

// scrapeRequest is the payload sent to the scraping service.
type scrapeRequest struct {
	URL          string `json:"url"`
	Shortcode    string `json:"shortcode"`
	ResultsLimit int    `json:"resultsLimit"`
}

// FetchComments validates the post URL, clamps the item count, and calls the
// scraping service synchronously. The caller's request is held open for the
// duration of the upstream call.
func (c *HTTPClient) FetchComments(ctx context.Context, postURL string, maxItems int) ([]RawComment, error) {
	shortcode, err := ExtractShortcode(postURL)
	if err != nil {
		return nil, err
	}

	payload := scrapeRequest{
		URL:          postURL,
		Shortcode:    shortcode,
		ResultsLimit: ClampMaxItems(maxItems),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call scraper api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read scraper response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Scraper] FetchComments FAILED: shortcode=%s status=%d duration=%v",
			shortcode, resp.StatusCode, time.Since(startTime))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var comments []RawComment
	if err := json.Unmarshal(respBody, &comments); err != nil {
		log.Printf("[Scraper] FetchComments malformed body: shortcode=%s err=%v", shortcode, err)
		return nil, ErrMalformedResponse
	}

	log.Printf("[Scraper] FetchComments OK: shortcode=%s comments=%d duration=%v",
		shortcode, len(comments), time.Since(startTime))
	return comments, nil
}
