package blobstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
)

// MemStore is the in-memory Store used by tests. FailNextWrite and
// FailNextRead inject one-shot faults so callers can exercise the
// coordinator's write-ordering guarantees.
type MemStore struct {
	mu         sync.Mutex
	containers map[string]bool
	blobs      map[string]string

	FailNextWrite  error
	FailNextRead   error
	FailNextDelete error
}

func NewMemStore() *MemStore {
	return &MemStore{
		containers: map[string]bool{},
		blobs:      map[string]string{},
	}
}

func (s *MemStore) CreateContainer(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	locator := path.Join(containerPrefix, name)
	s.containers[locator] = true
	return locator, nil
}

func (s *MemStore) WriteBlob(ctx context.Context, locator string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextWrite; err != nil {
		s.FailNextWrite = nil
		return err
	}
	if !s.containers[path.Dir(locator)] {
		return fmt.Errorf("container for %q: %w", locator, ErrBlobNotFound)
	}
	s.blobs[locator] = text
	return nil
}

func (s *MemStore) ReadBlob(ctx context.Context, locator string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextRead; err != nil {
		s.FailNextRead = nil
		return "", err
	}
	text, ok := s.blobs[locator]
	if !ok {
		return "", fmt.Errorf("blob %q: %w", locator, ErrBlobNotFound)
	}
	return text, nil
}

func (s *MemStore) DeleteContainerRecursive(ctx context.Context, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextDelete; err != nil {
		s.FailNextDelete = nil
		return err
	}
	delete(s.containers, locator)
	for k := range s.blobs {
		if strings.HasPrefix(k, locator+"/") {
			delete(s.blobs, k)
		}
	}
	return nil
}

// BlobText is a test accessor for the stored text at locator.
func (s *MemStore) BlobText(locator string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.blobs[locator]
	return text, ok
}
