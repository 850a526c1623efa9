package storage

import (
	"context"
	"errors"
	"sync"

	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// MemoryBlobStore keeps uploads in process memory. It backs local runs
// without object storage configured.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryBlobStore creates an empty store whose URLs start with baseURL
func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	if baseURL == "" {
		baseURL = "memory://media"
	}
	return &MemoryBlobStore{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Ensure MemoryBlobStore implements BlobUploader
var _ appproc.BlobUploader = (*MemoryBlobStore)(nil)

// Upload stores a copy of file.Data
func (s *MemoryBlobStore) Upload(_ context.Context, file appproc.Upload, folder, idPrefix string) (shared.MediaRef, error) {
	if len(file.Data) == 0 {
		return shared.MediaRef{}, errors.New("upload is empty")
	}
	key, contentType := objectKey(file, folder, idPrefix)

	s.mu.Lock()
	s.objects[key] = append([]byte(nil), file.Data...)
	s.mu.Unlock()

	return shared.MediaRef{URL: s.baseURL + "/" + key, PublicID: key, MediaType: contentType}, nil
}

// Delete removes an object if present
func (s *MemoryBlobStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return errors.New("public id is required")
	}
	s.mu.Lock()
	delete(s.objects, publicID)
	s.mu.Unlock()
	return nil
}

// Exists reports whether publicID is stored
func (s *MemoryBlobStore) Exists(publicID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[publicID]
	return ok
}

// Len returns the number of stored objects
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
