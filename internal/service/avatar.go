package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"ravewall/internal/config"
)

const (
	avatarFolder       = "avatars"
	avatarSize         = 128
	avatarJPEGQuality  = 85
	avatarCacheControl = "public, max-age=31536000, immutable"
	maxAvatarBytes     = 5 << 20
)

// AvatarService archives upstream profile pictures into Cloudflare R2.
// Instagram CDN avatar URLs expire, so stored comments keep a broken image
// unless the avatar is copied to storage we control.
type AvatarService struct {
	s3Client   *s3.Client
	httpClient *http.Client
	bucket     string
	publicURL  string
}

// NewAvatarService constructs an S3-compatible client for Cloudflare R2.
func NewAvatarService(ctx context.Context, cfg *config.Config) (*AvatarService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &AvatarService{
		s3Client:   s3Client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bucket:     cfg.R2BucketName,
		publicURL:  strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// Archive downloads an upstream avatar, normalizes it to a square JPEG, and
// uploads it to R2. Returns the public URL and object key of the copy.
func (s *AvatarService) Archive(ctx context.Context, sourceURL string) (url, key string, err error) {
	data, err := s.download(ctx, sourceURL)
	if err != nil {
		return "", "", err
	}

	jpegBytes, err := resizeToJPEG(data, avatarSize, avatarSize, avatarJPEGQuality)
	if err != nil {
		return "", "", err
	}

	key = fmt.Sprintf("%s/%s.jpg", avatarFolder, uuid.NewString())

	if err := s.putObject(ctx, key, jpegBytes); err != nil {
		return "", "", err
	}

	url = fmt.Sprintf("%s/%s", s.publicURL, key)
	return url, key, nil
}

// download fetches the upstream image with a size cap.
func (s *AvatarService) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build avatar request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch avatar: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > maxAvatarBytes {
		return nil, fmt.Errorf("avatar exceeds %d bytes", maxAvatarBytes)
	}

	return data, nil
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// putObject uploads bytes to R2 with long-lived cache headers.
func (s *AvatarService) putObject(ctx context.Context, key string, body []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("image/jpeg"),
		CacheControl: aws.String(avatarCacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// DeleteObject removes an archived avatar by key.
func (s *AvatarService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}
