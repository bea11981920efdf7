// Package docstore is the narrow remote document contract the draft room
// depends on: read a document, subscribe to its changes, merge-write fields.
//
// Merges are top-level and last-write-wins. Revision is surfaced on every
// read so an optimistic-concurrency check can be added later without
// changing callers; no backend checks it today.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("document store closed")

// Key addresses a document.
type Key struct {
	Collection string
	DocumentID string
}

func (k Key) String() string {
	return k.Collection + "/" + k.DocumentID
}

// Validate rejects empty key parts.
func (k Key) Validate() error {
	if k.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if k.DocumentID == "" {
		return fmt.Errorf("document id is required")
	}
	return nil
}

// Document is one revision of a stored JSON object.
type Document struct {
	Key      Key
	Data     json.RawMessage
	Revision uint64
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", d.Key, err)
	}
	return nil
}

// Store is implemented by every backend.
type Store interface {
	// Get returns the current document or ErrNotFound.
	Get(ctx context.Context, key Key) (Document, error)
	// Subscribe delivers the current document (if any) followed by every
	// later revision until ctx is cancelled. Slow readers only see the
	// latest revision; intermediate ones may be skipped.
	Subscribe(ctx context.Context, key Key) (<-chan Document, error)
	// Merge overwrites the given top-level fields, creating the document
	// when it does not exist.
	Merge(ctx context.Context, key Key, fields map[string]any) error
	Close() error
}

// mergeFields applies fields over the JSON object in base.
func mergeFields(base json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	if len(base) > 0 {
		if err := json.Unmarshal(base, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode existing document: %w", err)
		}
	}
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", name, err)
		}
		doc[name] = raw
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return out, nil
}

// offer delivers doc to ch, replacing a buffered revision the reader has
// not consumed yet.
func offer(ch chan Document, doc Document) {
	for {
		select {
		case ch <- doc:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
