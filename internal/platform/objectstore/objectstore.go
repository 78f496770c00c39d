// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package objectstore wraps the MinIO SDK for per-user media.
//
// Only the operations needed by the account lifecycle are exposed: bucket
// bootstrap and recursive purge of a key prefix on hard delete.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config carries the connection settings of a MinIO or S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore wraps the MinIO SDK client and bucket name.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore constructs a MinIO client from config.
func NewMinioStore(cfg Config) (*MinioStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("objectstore: endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("objectstore: access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("objectstore: bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to create client: %w", err)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (store *MinioStore) EnsureBucket(context context.Context) error {
	exists, err := store.client.BucketExists(context, store.bucket)
	if err != nil {
		return fmt.Errorf("objectstore: failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	return store.client.MakeBucket(context, store.bucket, minio.MakeBucketOptions{})
}

// RemovePrefix deletes every object whose key starts with prefix and returns
// how many objects were removed.
func (store *MinioStore) RemovePrefix(context context.Context, prefix string) (int, error) {
	if strings.TrimSpace(prefix) == "" || prefix == "/" {
		return 0, errors.New("objectstore: refusing to purge an empty prefix")
	}

	objects := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)

	go func() {
		defer close(objects)
		for object := range store.client.ListObjects(context, store.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if object.Err != nil {
				listErr <- object.Err
				return
			}
			select {
			case objects <- object:
			case <-context.Done():
				listErr <- context.Err()
				return
			}
		}
	}()

	removed := 0
	counted := make(chan minio.ObjectInfo)
	go func() {
		defer close(counted)
		for object := range objects {
			removed++
			counted <- object
		}
	}()

	var errs []error
	for result := range store.client.RemoveObjects(context, store.bucket, counted, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("objectstore: failed to remove %s: %w", result.ObjectName, result.Err))
	}

	select {
	case err := <-listErr:
		errs = append(errs, fmt.Errorf("objectstore: failed to list %s: %w", prefix, err))
	default:
	}

	if len(errs) > 0 {
		return removed - len(errs), errors.Join(errs...)
	}
	return removed, nil
}

// Bucket returns the configured bucket name.
func (store *MinioStore) Bucket() string {
	return store.bucket
}

// Disabled is used when no endpoint is configured; purges are no-ops.
type Disabled struct{}

// RemovePrefix implements the purge contract without touching any storage.
func (Disabled) RemovePrefix(context.Context, string) (int, error) {
	return 0, nil
}
