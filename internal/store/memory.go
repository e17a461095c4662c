package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryBackend keeps collections in memory. It backs tests and dry runs.
type MemoryBackend struct {
	mu          sync.Mutex
	collections map[string]*MemoryStore
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string]*MemoryStore)}
}

func (b *MemoryBackend) Collection(name string) Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.collections[name]
	if !ok {
		s = &MemoryStore{}
		b.collections[name] = s
	}
	return s
}

type MemoryStore struct {
	mu      sync.Mutex
	doc     Document
	written bool
}

func (s *MemoryStore) Read(ctx context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Document, len(s.doc))
	for k, v := range s.doc {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (s *MemoryStore) Write(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = make(Document, len(doc))
	for k, v := range doc {
		s.doc[k] = append(json.RawMessage(nil), v...)
	}
	s.written = true
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written, nil
}
