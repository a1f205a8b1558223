// Package publish uploads rendered reports to remote storage.
package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joshsymonds/controlgap/internal/config"
	"github.com/joshsymonds/controlgap/pkg/logger"
	"github.com/joshsymonds/controlgap/pkg/pathutil"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var contentTypes = map[string]string{
	".md":    "text/markdown; charset=utf-8",
	".txt":   "text/plain; charset=utf-8",
	".pdf":   "application/pdf",
	".csv":   "text/csv; charset=utf-8",
	".json":  "application/json",
	".sarif": "application/sarif+json",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".prom":  "text/plain; version=0.0.4",
}

// ContentType returns the MIME type uploaded for a report file.
func ContentType(file string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(file))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// S3Publisher uploads report files to an S3 bucket.
type S3Publisher struct {
	client ObjectPutter
	logger logger.Logger
	bucket string
	prefix string
}

// NewS3Publisher builds an S3 client from the default AWS credential chain and cfg.
func NewS3Publisher(ctx context.Context, cfg config.S3Config, log logger.Logger) (*S3Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log.Debug("Created S3 publisher", "bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return NewS3PublisherWithClient(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewS3PublisherWithClient creates a publisher over an existing client.
func NewS3PublisherWithClient(client ObjectPutter, bucket, prefix string, log logger.Logger) *S3Publisher {
	return &S3Publisher{
		client: client,
		logger: log,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for a file published under runID.
func (p *S3Publisher) Key(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// Publish uploads files under <prefix>/<runID>/ and returns the object keys in
// file order. It stops at the first failed upload.
func (p *S3Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return keys, fmt.Errorf("publishing cancelled: %w", err)
		}

		key, err := p.upload(ctx, runID, file)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	p.logger.Info("Published reports", "bucket", p.bucket, "count", len(keys))
	return keys, nil
}

func (p *S3Publisher) upload(ctx context.Context, runID, file string) (string, error) {
	validPath, err := pathutil.ValidatePath(file)
	if err != nil {
		return "", fmt.Errorf("invalid report path: %w", err)
	}

	f, err := os.Open(validPath) // #nosec G304 - path is validated
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", file, err)
	}
	defer func() { _ = f.Close() }()

	key := p.Key(runID, validPath)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ContentType(validPath)),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to s3://%s/%s: %w", filepath.Base(file), p.bucket, key, err)
	}

	p.logger.Debug("Uploaded report", "bucket", p.bucket, "key", key)
	return key, nil
}
