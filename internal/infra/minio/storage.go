package minio

import (
	"bytes"
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage is safe for concurrent use; the underlying client is shared by
// every in-flight event.
type Storage struct {
	client             *miniogo.Client
	videosBucket       string
	previewsBucket     string
	previewContentType string
}

type StorageConfig struct {
	Endpoint           string
	AccessKey          string
	SecretKey          string
	UseSSL             bool
	VideosBucket       string
	PreviewsBucket     string
	PreviewContentType string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	contentType := cfg.PreviewContentType
	if contentType == "" {
		contentType = "image/png"
	}

	return &Storage{
		client:             client,
		videosBucket:       cfg.VideosBucket,
		previewsBucket:     cfg.PreviewsBucket,
		previewContentType: contentType,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.videosBucket, s.previewsBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *Storage) DownloadVideo(ctx context.Context, objectKey string, destPath string) error {
	if err := s.client.FGetObject(ctx, s.videosBucket, objectKey, destPath, miniogo.GetObjectOptions{}); err != nil {
		return fmt.Errorf("get %s/%s: %w", s.videosBucket, objectKey, err)
	}
	return nil
}

func (s *Storage) UploadPreview(ctx context.Context, objectKey string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.previewsBucket, objectKey, bytes.NewReader(data), int64(len(data)), miniogo.PutObjectOptions{
		ContentType: s.previewContentType,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.previewsBucket, objectKey, err)
	}
	return nil
}
