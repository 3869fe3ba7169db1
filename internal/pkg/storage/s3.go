package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mx-space/pagecraft/internal/config"
)

// S3 uploads objects to an S3 compatible bucket.
type S3 struct {
	client    *s3.Client
	bucket    string
	region    string
	endpoint  string
	publicURL string
	prefix    string
	pathStyle bool
}

func NewS3(cfg config.S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket is required")
	}

	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.ForcePathStyle,
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		)
	}
	endpoint := cfg.Endpoint
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid s3 endpoint %q: %w", endpoint, err)
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return &S3{
		client:    s3.New(opts),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  endpoint,
		publicURL: cfg.PublicURL,
		prefix:    cfg.PathPrefix,
		pathStyle: cfg.ForcePathStyle,
	}, nil
}

func (u *S3) Name() string { return "s3" }

func (u *S3) Put(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	key = normalizeObjectKey(key)
	if u.prefix != "" {
		key = u.prefix + "/" + key
	}
	if !isSafeKey(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(payload))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return u.objectURL(key), nil
}

func (u *S3) objectURL(key string) string {
	if u.publicURL != "" {
		return u.publicURL + "/" + key
	}
	if u.endpoint != "" {
		if u.pathStyle {
			return u.endpoint + "/" + u.bucket + "/" + key
		}
		parsed, err := url.Parse(u.endpoint)
		if err == nil && parsed.Host != "" {
			return parsed.Scheme + "://" + u.bucket + "." + parsed.Host + "/" + key
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
