// Package publish uploads merged collation artifacts to S3.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader is the subset of manager.Uploader the publisher needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Config names the destination bucket.
type Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

// Option configures a Publisher.
type Option interface {
	apply(*Publisher)
}

type optionFunc func(*Publisher)

func (f optionFunc) apply(p *Publisher) { f(p) }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(p *Publisher) {
		p.logger = logger
	})
}

// WithUploader replaces the S3 uploader.
func WithUploader(u Uploader) Option {
	return optionFunc(func(p *Publisher) {
		p.uploader = u
	})
}

// Publisher uploads local files under a key prefix.
type Publisher struct {
	bucket   string
	prefix   string
	uploader Uploader
	logger   *slog.Logger
}

// New builds a publisher. Unless an uploader is supplied, credentials and
// region are resolved from the default AWS chain.
func New(ctx context.Context, cfg Config, opts ...Option) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("publish: bucket is required")
	}
	p := &Publisher{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(p)
	}
	if p.uploader != nil {
		return p, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	p.uploader = manager.NewUploader(client)
	return p, nil
}

// Key returns the object key for a local file.
func (p *Publisher) Key(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}

// Publish uploads localPath and returns its s3:// URL.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := p.Key(localPath)
	if _, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("upload %s to s3://%s/%s: %w", localPath, p.bucket, key, err)
	}

	url := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	p.logger.Info("published artifact", "path", localPath, "url", url)
	return url, nil
}
