package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend implements Backend on the local filesystem. Objects live under
// basePath with their key as the relative path; served back through the file
// handler.
type LocalBackend struct {
	basePath      string // absolute root of the object tree
	publicBaseURL string
}

// NewLocalBackend creates the base directory if needed and returns a
// filesystem-backed store.
func NewLocalBackend(basePath, publicBaseURL string) (*LocalBackend, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	log.Printf("storage: Initialized LocalBackend at %s", absBasePath)
	return &LocalBackend{
		basePath:      absBasePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// fullPath resolves a key to an absolute path and rejects anything escaping
// the base directory.
func (lb *LocalBackend) fullPath(key string) (string, error) {
	cleanKey := filepath.Clean(filepath.FromSlash(key))

	absFullPath, err := filepath.Abs(filepath.Join(lb.basePath, cleanKey))
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", key, err)
	}

	if !strings.HasPrefix(absFullPath, lb.basePath+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid key: access denied for '%s'", key)
	}

	return absFullPath, nil
}

func (lb *LocalBackend) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	fullPath, err := lb.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", key, err)
	}

	outFile, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file '%s': %w", fullPath, err)
	}

	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullPath)
		return fmt.Errorf("failed to write data to '%s': %w", fullPath, err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to finish writing '%s': %w", fullPath, err)
	}

	log.Printf("storage: Saved object %s", key)
	return nil
}

func (lb *LocalBackend) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	fullPath, err := lb.fullPath(key)
	if err != nil {
		return nil, 0, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("failed to open object '%s': %w", key, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return file, info.Size(), nil
}

func (lb *LocalBackend) Delete(ctx context.Context, key string) error {
	fullPath, err := lb.fullPath(key)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}
	if err == nil {
		log.Printf("storage: Deleted object %s", key)
	}
	return nil
}

// PublicURL points at the file handler, which resolves objects by key.
func (lb *LocalBackend) PublicURL(key string) string {
	return lb.publicBaseURL + "/api/files?key=" + url.QueryEscape(key)
}
