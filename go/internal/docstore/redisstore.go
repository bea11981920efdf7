package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// revisionField holds the document revision inside each hash.
const revisionField = "_rev"

// RedisStore keeps each document as a Redis hash, one hash field per
// top-level document field holding that field's JSON. Merges are HSETs,
// and every merge publishes on the document's change channel.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// ConnectRedis dials addr and verifies the connection.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "docstore"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) hashKey(key Key) string {
	return s.prefix + ":" + key.Collection + ":" + key.DocumentID
}

func (s *RedisStore) channel(key Key) string {
	return s.hashKey(key) + ":changed"
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Document, error) {
	fields, err := s.rdb.HGetAll(ctx, s.hashKey(key)).Result()
	if err != nil {
		return Document{}, fmt.Errorf("failed to HGETALL %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Document{}, ErrNotFound
	}
	return decodeHash(key, fields)
}

func decodeHash(key Key, fields map[string]string) (Document, error) {
	doc := Document{Key: key}
	body := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		if name == revisionField {
			rev, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Document{}, fmt.Errorf("invalid revision on %s: %w", key, err)
			}
			doc.Revision = rev
			continue
		}
		body[name] = json.RawMessage(value)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	doc.Data = data
	return doc, nil
}

// Merge writes the fields, bumps the revision, and notifies subscribers in
// one MULTI block.
func (s *RedisStore) Merge(ctx context.Context, key Key, fields map[string]any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	values := make([]any, 0, len(fields)*2)
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode field %s: %w", name, err)
		}
		values = append(values, name, string(raw))
	}

	hash := s.hashKey(key)
	var rev *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, values...)
		rev = pipe.HIncrBy(ctx, hash, revisionField, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to merge %s: %w", key, err)
	}

	if err := s.rdb.Publish(ctx, s.channel(key), rev.Val()).Err(); err != nil {
		return fmt.Errorf("failed to notify %s: %w", key, err)
	}
	return nil
}

// Subscribe listens on the change channel and re-reads the hash on every
// notification.
func (s *RedisStore) Subscribe(ctx context.Context, key Key) (<-chan Document, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	sub := s.rdb.Subscribe(ctx, s.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", key, err)
	}

	out := make(chan Document, 1)
	if doc, err := s.Get(ctx, key); err == nil {
		out <- doc
	}

	go func() {
		defer close(out)
		defer sub.Close()

		var last uint64
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				doc, err := s.Get(ctx, key)
				if err != nil {
					log.Error().Err(err).Str("key", key.String()).Msg("failed to reload document after change")
					continue
				}
				if doc.Revision != 0 && doc.Revision <= last {
					continue
				}
				last = doc.Revision
				offer(out, doc)
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
