package docstore

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process. It backs tests and single-node
// development setups.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[Key]Document
	subs   map[Key]map[chan Document]struct{}
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[Key]Document),
		subs: make(map[Key]map[chan Document]struct{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Document{}, ErrClosed
	}
	doc, ok := s.docs[key]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, key Key) (<-chan Document, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	ch := make(chan Document, 1)
	if s.subs[key] == nil {
		s.subs[key] = make(map[chan Document]struct{})
	}
	s.subs[key][ch] = struct{}{}
	if doc, ok := s.docs[key]; ok {
		ch <- doc
	}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[key][ch]; ok {
			delete(s.subs[key], ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (s *MemoryStore) Merge(ctx context.Context, key Key, fields map[string]any) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	current := s.docs[key]
	data, err := mergeFields(current.Data, fields)
	if err != nil {
		return err
	}
	doc := Document{Key: key, Data: data, Revision: current.Revision + 1}
	s.docs[key] = doc

	for ch := range s.subs[key] {
		offer(ch, doc)
	}
	return nil
}

// Close ends every subscription.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for key, chans := range s.subs {
		for ch := range chans {
			close(ch)
		}
		delete(s.subs, key)
	}
	return nil
}
