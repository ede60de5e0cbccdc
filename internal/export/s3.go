package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"designagent/internal/designspec"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Exporter uploads the artifact set to an S3-compatible bucket.
type S3Exporter struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Exporter(cfg S3Config) (*S3Exporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Exporter{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Exporter) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Write uploads every artifact under the dest prefix and returns
// s3://bucket/prefix.
func (s *S3Exporter) Write(ctx context.Context, doc *designspec.Document, dest string) (string, error) {
	files, err := Artifacts(doc)
	if err != nil {
		return "", err
	}
	prefix, ok := SafePath(dest)
	if !ok {
		prefix = designspec.DefaultOutDir
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	for _, f := range files {
		key := objectKey(prefix, f.Path)
		_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(f.Content), int64(len(f.Content)), minio.PutObjectOptions{
			ContentType: f.ContentType,
		})
		if err != nil {
			return "", fmt.Errorf("put %s: %w", key, err)
		}
	}
	return "s3://" + s.bucketName + "/" + prefix, nil
}

func objectKey(prefix, p string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimLeft(p, "/")
}
