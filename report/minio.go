package report

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/domain"
	ferrors "github.com/tdambrin/sf-push/errors"
)

// Archiver stores a report and returns where it went.
type Archiver interface {
	Archive(ctx context.Context, r domain.UploadReport) (string, error)
}

var (
	_ Archiver = (*S3Archiver)(nil)
	_ Archiver = (*MinioArchiver)(nil)
)

// ObjectPutter is the part of the MinIO client the archiver uses.
type ObjectPutter interface {
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

// MinioConfig locates a MinIO (or other S3-compatible) deployment.
type MinioConfig struct {
	Endpoint  string // host[:port], no scheme
	AccessKey string
	SecretKey string
	Insecure  bool // plain HTTP
}

// MinioArchiver stores reports in a MinIO bucket.
type MinioArchiver struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// MinioOption configures a MinioArchiver.
type MinioOption func(*MinioArchiver)

// WithMinioPrefix sets the key prefix reports are stored under.
func WithMinioPrefix(prefix string) MinioOption {
	return func(a *MinioArchiver) {
		a.prefix = prefix
	}
}

// WithMinioClient uses client instead of building one from MinioConfig.
func WithMinioClient(client ObjectPutter) MinioOption {
	return func(a *MinioArchiver) {
		a.client = client
	}
}

// WithMinioClock sets the time source used for object names.
func WithMinioClock(now func() time.Time) MinioOption {
	return func(a *MinioArchiver) {
		a.now = now
	}
}

// WithMinioLogger sets the logger. Defaults to a no-op logger.
func WithMinioLogger(logger *zap.Logger) MinioOption {
	return func(a *MinioArchiver) {
		a.logger = logger
	}
}

// NewMinioArchiver returns an archiver writing to bucket on the deployment cfg describes.
func NewMinioArchiver(cfg MinioConfig, bucket string, opts ...MinioOption) (*MinioArchiver, error) {
	if bucket == "" {
		return nil, ferrors.New(ferrors.CodeInvalidConfig, "report bucket is required")
	}

	a := &MinioArchiver{
		bucket: bucket,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		if cfg.Endpoint == "" {
			return nil, ferrors.New(ferrors.CodeInvalidConfig, "minio endpoint is required")
		}
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure:       !cfg.Insecure,
			BucketLookup: minio.BucketLookupAuto,
		})
		if err != nil {
			return nil, ferrors.WrapWithContext(err, ferrors.CodeInvalidConfig,
				"failed to initialize MinIO client", map[string]interface{}{"endpoint": cfg.Endpoint})
		}
		a.client = client
	}

	return a, nil
}

// Archive stores r and returns its object key.
func (a *MinioArchiver) Archive(ctx context.Context, r domain.UploadReport) (string, error) {
	data, err := Format(r)
	if err != nil {
		return "", ferrors.Wrap(err, ferrors.CodeInternal, "failed to render report")
	}

	key := objectKey(a.prefix, a.now())
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: jsonContentType})
	if err != nil {
		return "", ferrors.WrapWithContext(err, ferrors.CodePublishFailed,
			"failed to archive report", map[string]interface{}{"bucket": a.bucket, "key": key})
	}

	a.logger.Info("archived upload report",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.String("etag", info.ETag))
	return key, nil
}
