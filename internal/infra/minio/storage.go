package minio

import (
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage mirrors post media from the media bucket into the local media
// root. Object keys follow the on-disk layout: "<filename>" for the resized
// default, "full/<filename>" for the fullsize variant.
type Storage struct {
	client      *miniogo.Client
	mediaBucket string
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	MediaBucket string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{client: client, mediaBucket: cfg.MediaBucket}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.mediaBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.mediaBucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.mediaBucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.mediaBucket, err)
		}
	}
	return nil
}

func (s *Storage) FetchMedia(ctx context.Context, objectKey string, destPath string) error {
	if err := s.client.FGetObject(ctx, s.mediaBucket, objectKey, destPath, miniogo.GetObjectOptions{}); err != nil {
		return fmt.Errorf("fetch media %s: %w", objectKey, err)
	}
	return nil
}
