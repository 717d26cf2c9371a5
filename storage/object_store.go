package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreConfig carries the connection settings for an S3-compatible
// object store.
type ObjectStoreConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// ObjectStoreBackend implements Backend on any S3-compatible object store via
// the MinIO client.
type ObjectStoreBackend struct {
	client *minio.Client
	bucket string
	scheme string
	host   string
}

// NewObjectStoreBackend connects to the store and ensures the bucket exists.
func NewObjectStoreBackend(ctx context.Context, cfg ObjectStoreConfig) (*ObjectStoreBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client for '%s': %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket '%s': %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.Bucket, err)
		}
		log.Printf("storage: Created bucket %s", cfg.Bucket)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	log.Printf("storage: Initialized ObjectStoreBackend at %s bucket %s", cfg.Endpoint, cfg.Bucket)
	return &ObjectStoreBackend{
		client: client,
		bucket: cfg.Bucket,
		scheme: scheme,
		host:   cfg.Endpoint,
	}, nil
}

func (ob *ObjectStoreBackend) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	_, err := ob.client.PutObject(ctx, ob.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object '%s': %w", key, err)
	}
	return nil
}

func (ob *ObjectStoreBackend) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := ob.client.GetObject(ctx, ob.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object '%s': %w", key, err)
	}

	// GetObject is lazy; Stat forces the first request and surfaces NoSuchKey
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return obj, info.Size, nil
}

func (ob *ObjectStoreBackend) Delete(ctx context.Context, key string) error {
	err := ob.client.RemoveObject(ctx, ob.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}
	return nil
}

func (ob *ObjectStoreBackend) PublicURL(key string) string {
	return fmt.Sprintf("%s://%s/%s/%s", ob.scheme, ob.host, ob.bucket, strings.TrimLeft(key, "/"))
}
