package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const (
	containerPrefix = "projects"
	containerMarker = ".container"

	readTimeout   = 30 * time.Second
	writeTimeout  = 2 * time.Minute
	deleteTimeout = 2 * time.Minute
)

// GCSStore keeps every project container under one bucket as an object
// prefix. A marker object distinguishes a created container from a
// bare prefix, so writes against a never-created container fail
// instead of minting blobs out of thin air.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) CreateContainer(ctx context.Context, name string) (string, error) {
	locator := path.Join(containerPrefix, name)
	if err := s.writeObject(ctx, path.Join(locator, containerMarker), ""); err != nil {
		return "", fmt.Errorf("create container %q: %w", name, err)
	}
	return locator, nil
}

func (s *GCSStore) WriteBlob(ctx context.Context, locator string, text string) error {
	marker := path.Join(path.Dir(locator), containerMarker)
	attrCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	if _, err := s.client.Bucket(s.bucket).Object(marker).Attrs(attrCtx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("container for %q: %w", locator, ErrBlobNotFound)
		}
		return fmt.Errorf("check container for %q: %w", locator, err)
	}
	if err := s.writeObject(ctx, locator, text); err != nil {
		return fmt.Errorf("write blob %q: %w", locator, err)
	}
	return nil
}

func (s *GCSStore) ReadBlob(ctx context.Context, locator string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	r, err := s.client.Bucket(s.bucket).Object(locator).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("blob %q: %w", locator, ErrBlobNotFound)
		}
		return "", fmt.Errorf("open blob %q: %w", locator, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read blob %q: %w", locator, err)
	}
	return string(data), nil
}

func (s *GCSStore) DeleteContainerRecursive(ctx context.Context, locator string) error {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: locator + "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list container %q: %w", locator, err)
		}
		err = s.client.Bucket(s.bucket).Object(attrs.Name).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete object %q: %w", attrs.Name, err)
		}
	}
}

func (s *GCSStore) writeObject(ctx context.Context, name, text string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json; charset=utf-8"
	if _, err := io.Copy(w, strings.NewReader(text)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
