// Package assets stores uploaded brand assets (logos, favicons) in
// S3-compatible object storage.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/config"
	"github.com/rs/zerolog"
)

// MaxUploadBytes is the largest accepted asset.
const MaxUploadBytes = 2 << 20

// ErrUnsupportedType is returned for content that is not an accepted image format.
var ErrUnsupportedType = errors.New("unsupported asset type")

// extensions maps accepted sniffed content types to object key extensions.
var extensions = map[string]string{
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
}

// DetectType sniffs the content type of head and returns it with the key
// extension, or ErrUnsupportedType.
func DetectType(head []byte) (contentType, ext string, err error) {
	contentType = http.DetectContentType(head)
	ext, ok := extensions[contentType]
	if !ok {
		return contentType, "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return contentType, ext, nil
}

// objectUploader is the subset of manager.Uploader used by Store.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Store uploads assets to a bucket and returns their public URLs.
type Store struct {
	bucket   string
	baseURL  string
	uploader objectUploader
	logger   zerolog.Logger
}

// NewS3Store creates a Store from the assets configuration.
func NewS3Store(ctx context.Context, cfg config.AssetsConfig, logger zerolog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("assets bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := normalizeEndpoint(cfg.Endpoint)
	clientOpts := []func(*s3.Options){}
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.Concurrency = 1
	})

	return newStore(cfg.Bucket, PublicBaseURL(cfg.Bucket, region, endpoint, cfg.PublicBaseURL), uploader, logger), nil
}

func newStore(bucket, baseURL string, uploader objectUploader, logger zerolog.Logger) *Store {
	return &Store{
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		uploader: uploader,
		logger:   logger.With().Str("component", "assets").Logger(),
	}
}

// normalizeEndpoint adds an https scheme to bare host endpoints.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

// PublicBaseURL returns the URL objects in bucket are served from.
func PublicBaseURL(bucket, region, endpoint, override string) string {
	switch {
	case override != "":
		return strings.TrimSuffix(override, "/")
	case endpoint != "":
		return endpoint + "/" + bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
}

// Key returns the object key for a new asset of kind for websiteID.
func Key(websiteID uuid.UUID, kind, ext string) string {
	return fmt.Sprintf("brands/%s/%s-%s%s", websiteID, kind, uuid.NewString(), ext)
}

// Put uploads body under a fresh key and returns its public URL. Objects are
// immutable; replacing an asset uploads a new key.
func (s *Store) Put(ctx context.Context, websiteID uuid.UUID, kind, contentType, ext string, body io.Reader) (string, error) {
	key := Key(websiteID, kind, ext)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.logger.Info().
		Str("website_id", websiteID.String()).
		Str("kind", kind).
		Str("key", key).
		Msg("brand asset uploaded")

	return s.baseURL + "/" + key, nil
}
