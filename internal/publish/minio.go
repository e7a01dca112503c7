package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"subburn/internal/config"
	"subburn/internal/logging"
)

// ObjectStore is the subset of the MinIO client used for publishing.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads files into a single bucket.
type Publisher struct {
	store  ObjectStore
	bucket string
	region string
	prefix string
	logger *slog.Logger
}

// New wraps an existing object store client.
func New(store ObjectStore, bucket, region, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		bucket: strings.TrimSpace(bucket),
		region: strings.TrimSpace(region),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
		logger: logging.NewComponentLogger(logger, "publish"),
	}
}

// NewMinIO builds a Publisher backed by a MinIO client.
func NewMinIO(cfg config.Publish, logger *slog.Logger) (*Publisher, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}
	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return New(client, cfg.Bucket, cfg.Region, cfg.Prefix, logger), nil
}

func validate(cfg config.Publish) error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return errors.New("publish endpoint is required")
	}
	if strings.Contains(cfg.Endpoint, "://") {
		return fmt.Errorf("publish endpoint must not include scheme: %q", cfg.Endpoint)
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return errors.New("publish bucket is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return errors.New("publish credentials are required")
	}
	return nil
}

// Bucket returns the target bucket name.
func (p *Publisher) Bucket() string { return p.bucket }

// BucketExists reports whether bucket exists on the object store.
func (p *Publisher) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return p.store.BucketExists(ctx, bucket)
}

// EnsureBucket creates the target bucket when it does not exist.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}
	p.logger.Info("bucket created", logging.String("bucket", p.bucket))
	return nil
}

// Upload stores the file at localPath and returns its object key.
func (p *Publisher) Upload(ctx context.Context, localPath, filename, requestID string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		filename = filepath.Base(localPath)
	}
	key := ObjectKey(p.prefix, requestID, filename)
	started := time.Now()
	info, err := p.store.FPutObject(ctx, p.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: ContentType(filename),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	logging.WithContext(ctx, p.logger).Info("output published",
		logging.String("bucket", p.bucket),
		logging.String("object_key", key),
		logging.Int64("bytes", info.Size),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "output_published"),
	)
	return key, nil
}

// ObjectKey joins the non-empty key segments with '/'.
func ObjectKey(prefix, requestID, filename string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{prefix, requestID, filename} {
		if part = strings.Trim(strings.TrimSpace(part), "/"); part != "" {
			parts = append(parts, part)
		}
	}
	return path.Join(parts...)
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".ts":   "video/mp2t",
}

// ContentType guesses the MIME type from the file extension.
func ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
