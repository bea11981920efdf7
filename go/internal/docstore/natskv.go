package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// NATSKVConfig configures the JetStream KeyValue backend.
type NATSKVConfig struct {
	Bucket   string
	Replicas int
}

func DefaultNATSKVConfig() NATSKVConfig {
	return NATSKVConfig{Bucket: "draft_rooms", Replicas: 1}
}

// NATSKVStore stores each document as one KeyValue entry keyed
// "<collection>.<document id>" and serves subscriptions from KV watchers.
type NATSKVStore struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// NewNATSKVStore binds to (creating if needed) the configured bucket.
func NewNATSKVStore(ctx context.Context, nc *nats.Conn, cfg NATSKVConfig) (*NATSKVStore, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "Draft room documents",
		History:     1,
		Replicas:    cfg.Replicas,
	})
	if err != nil {
		return nil, fmt.Errorf("bind key value bucket %s: %w", cfg.Bucket, err)
	}

	log.Info().Str("bucket", cfg.Bucket).Msg("connected NATS KV document store")
	return &NATSKVStore{nc: nc, kv: kv}, nil
}

// kvKey maps a document key onto the KV key alphabet.
func kvKey(key Key) string {
	clean := func(s string) string {
		return strings.NewReplacer(" ", "_", "*", "_", ">", "_", "/", "_").Replace(s)
	}
	return clean(key.Collection) + "." + clean(key.DocumentID)
}

func (s *NATSKVStore) Get(ctx context.Context, key Key) (Document, error) {
	entry, err := s.kv.Get(ctx, kvKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return Document{Key: key, Data: entry.Value(), Revision: entry.Revision()}, nil
}

// Merge reads the current entry, applies fields, and puts the result back.
// The put is unconditional, so a concurrent merge between the read and the
// write is lost.
func (s *NATSKVStore) Merge(ctx context.Context, key Key, fields map[string]any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	current, err := s.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	data, err := mergeFields(current.Data, fields)
	if err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, kvKey(key), data); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *NATSKVStore) Subscribe(ctx context.Context, key Key) (<-chan Document, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	watcher, err := s.kv.Watch(ctx, kvKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", key, err)
	}

	out := make(chan Document, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := watcher.Stop(); err != nil {
				log.Debug().Err(err).Str("key", key.String()).Msg("stop kv watcher")
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial values
				if entry == nil || entry.Operation() != jetstream.KeyValuePut {
					continue
				}
				offer(out, Document{Key: key, Data: entry.Value(), Revision: entry.Revision()})
			}
		}
	}()
	return out, nil
}

// Close drains the NATS connection.
func (s *NATSKVStore) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}
