package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/domain"
	ferrors "github.com/tdambrin/sf-push/errors"
)

const (
	// objectPrefix starts every archived report object name.
	objectPrefix = "upload_report-"

	timestampLayout = "20060102T150405Z"
	jsonContentType = "application/json"
)

// PutObjectAPI is the part of the S3 client the archiver uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores reports in a bucket.
type S3Archiver struct {
	client   PutObjectAPI
	bucket   string
	prefix   string
	region   string
	endpoint string
	now      func() time.Time
	logger   *zap.Logger
}

// ArchiverOption configures an S3Archiver.
type ArchiverOption func(*S3Archiver)

// WithPrefix sets the key prefix reports are stored under.
func WithPrefix(prefix string) ArchiverOption {
	return func(a *S3Archiver) {
		a.prefix = prefix
	}
}

// WithRegion sets the bucket region.
func WithRegion(region string) ArchiverOption {
	return func(a *S3Archiver) {
		a.region = region
	}
}

// WithEndpoint targets an S3-compatible store. Path-style addressing is used.
func WithEndpoint(endpoint string) ArchiverOption {
	return func(a *S3Archiver) {
		a.endpoint = endpoint
	}
}

// WithS3Client uses client instead of building one from the default chain.
func WithS3Client(client PutObjectAPI) ArchiverOption {
	return func(a *S3Archiver) {
		a.client = client
	}
}

// WithClock sets the time source used for object names.
func WithClock(now func() time.Time) ArchiverOption {
	return func(a *S3Archiver) {
		a.now = now
	}
}

// WithArchiverLogger sets the logger. Defaults to a no-op logger.
func WithArchiverLogger(logger *zap.Logger) ArchiverOption {
	return func(a *S3Archiver) {
		a.logger = logger
	}
}

// NewS3Archiver returns an archiver writing to bucket.
func NewS3Archiver(ctx context.Context, bucket string, opts ...ArchiverOption) (*S3Archiver, error) {
	if bucket == "" {
		return nil, ferrors.New(ferrors.CodeInvalidConfig, "report bucket is required")
	}

	a := &S3Archiver{
		bucket: bucket,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, ferrors.Wrap(err, ferrors.CodeInvalidConfig, "failed to load AWS config")
		}
		if a.region != "" {
			cfg.Region = a.region
		} else if cfg.Region == "" {
			cfg.Region = "us-east-1"
		}

		var s3Opts []func(*s3.Options)
		if a.endpoint != "" {
			s3Opts = append(s3Opts, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(a.endpoint)
				o.UsePathStyle = true
			})
		}
		a.client = s3.NewFromConfig(cfg, s3Opts...)
	}

	return a, nil
}

// Key returns the object name a report archived at t is stored under.
func (a *S3Archiver) Key(t time.Time) string {
	return objectKey(a.prefix, t)
}

// objectKey is <prefix>/upload_report-<UTC timestamp>.json.
func objectKey(prefix string, t time.Time) string {
	return path.Join(prefix, objectPrefix+t.UTC().Format(timestampLayout)+".json")
}

// Archive stores r and returns its object key.
func (a *S3Archiver) Archive(ctx context.Context, r domain.UploadReport) (string, error) {
	data, err := Format(r)
	if err != nil {
		return "", ferrors.Wrap(err, ferrors.CodeInternal, "failed to render report")
	}

	key := a.Key(a.now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(jsonContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", ferrors.WrapWithContext(err, ferrors.CodePublishFailed,
			"failed to archive report", map[string]interface{}{"bucket": a.bucket, "key": key})
	}

	a.logger.Info("archived upload report",
		zap.String("location", fmt.Sprintf("s3://%s/%s", a.bucket, key)),
		zap.Int("bytes", len(data)))
	return key, nil
}
