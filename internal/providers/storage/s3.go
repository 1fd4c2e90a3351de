// Package storage promotes rendered videos from provider-hosted, expiring
// URLs to durable object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/reelforge/reelforge/internal/faults"
)

const downloadTimeout = 5 * time.Minute

// Uploader copies a source media reference into an S3 bucket and returns the
// durable URL.
type Uploader interface {
	Upload(ctx context.Context, sourceURL, key string) (string, error)
}

// S3Uploader implements Uploader against AWS S3 or an S3-compatible store.
type S3Uploader struct {
	client *s3.Client
	httpc  *http.Client
	bucket string
	prefix string
}

// NewS3Uploader creates an uploader using the SDK's default credential chain.
func NewS3Uploader(ctx context.Context, bucket, prefix string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Uploader{
		client: s3.NewFromConfig(cfg),
		httpc:  &http.Client{Timeout: downloadTimeout},
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Upload fetches sourceURL (https or data URL) and writes it under key.
func (u *S3Uploader) Upload(ctx context.Context, sourceURL, key string) (string, error) {
	body, contentType, err := u.fetch(ctx, sourceURL)
	if err != nil {
		return "", faults.New(faults.KindStorage, err)
	}
	defer func() { _ = body.Close() }()

	fullKey := key
	if u.prefix != "" {
		fullKey = u.prefix + "/" + key
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", faults.Newf(faults.KindStorage, "failed to read source: %v", err)
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", faults.Newf(faults.KindStorage, "failed to put object: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, fullKey), nil
}

func (u *S3Uploader) fetch(ctx context.Context, sourceURL string) (io.ReadCloser, string, error) {
	if strings.HasPrefix(sourceURL, "data:") {
		meta, payload, found := strings.Cut(sourceURL, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		contentType := strings.TrimPrefix(meta, "data:")
		contentType = strings.TrimSuffix(contentType, ";base64")
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode data URL: %w", err)
		}
		return io.NopCloser(bytes.NewReader(decoded)), contentType, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := u.httpc.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("source fetch returned status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return resp.Body, contentType, nil
}
