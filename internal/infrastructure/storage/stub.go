// Package storage provides object storage for rendered business documents.
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/santabrisa/backend/internal/application/pipeline"
)

// StubDocumentStore is an in-memory implementation of DocumentStore for
// development and tests. Stored documents are retrievable for assertions.
type StubDocumentStore struct {
	// BaseURL is the base URL for generated document URLs
	BaseURL string

	mu   sync.Mutex
	docs map[string][]byte
}

// NewStubDocumentStore creates a new StubDocumentStore
func NewStubDocumentStore() *StubDocumentStore {
	return &StubDocumentStore{
		BaseURL: "https://docs.example.com",
		docs:    make(map[string][]byte),
	}
}

// Ensure StubDocumentStore implements DocumentStore
var _ pipeline.DocumentStore = (*StubDocumentStore)(nil)

// Store keeps the document in memory and returns a deterministic URL
func (s *StubDocumentStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.docs[key] = cp

	return s.BaseURL + "/" + key, nil
}

// Get returns a stored document, or nil when absent
func (s *StubDocumentStore) Get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[key]
}

// Len returns the number of stored documents
func (s *StubDocumentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
