package docstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := ConnectRedis(context.Background(), mr.Addr(), 0)
	require.NoError(t, err)
	return NewRedisStore(rdb, "draftroom"), mr
}

func TestRedisStoreBehaviour(t *testing.T) {
	testStoreBehaviour(t, func(t *testing.T) Store {
		s, _ := openRedis(t)
		return s
	})
}

func TestRedisStoreKeepsOneHashFieldPerDocumentField(t *testing.T) {
	ctx := context.Background()
	s, mr := openRedis(t)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Merge(ctx, roomKey, map[string]any{"currentPick": 3, "isPaused": true}))
	require.NoError(t, s.Merge(ctx, roomKey, map[string]any{"currentPick": 4}))

	hash := "draftroom:draft_rooms:room-1"
	assert.Equal(t, "4", mr.HGet(hash, "currentPick"))
	assert.Equal(t, "true", mr.HGet(hash, "isPaused"))
	assert.Equal(t, "2", mr.HGet(hash, revisionField))

	doc, err := s.Get(ctx, roomKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), doc.Revision)
	assert.NotContains(t, decodeMap(t, doc), revisionField)
}

func TestRedisStoreEmptyMergeIsNoop(t *testing.T) {
	ctx := context.Background()
	s, mr := openRedis(t)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Merge(ctx, roomKey, map[string]any{}))
	assert.False(t, mr.Exists("draftroom:draft_rooms:room-1"))
	_, err := s.Get(ctx, roomKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnectRedisFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectRedis(context.Background(), addr, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestDecodeHash(t *testing.T) {
	doc, err := decodeHash(roomKey, map[string]string{
		"currentPick":   "4",
		"isPaused":      "true",
		"allDraftPicks": `{"1":[]}`,
		revisionField:   "12",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), doc.Revision)

	fields := decodeMap(t, doc)
	assert.Equal(t, float64(4), fields["currentPick"])
	assert.Equal(t, true, fields["isPaused"])
	assert.NotContains(t, fields, revisionField)
}

func TestDecodeHashBadRevision(t *testing.T) {
	_, err := decodeHash(roomKey, map[string]string{revisionField: "x"})
	assert.Error(t, err)
}

func TestRedisKeys(t *testing.T) {
	s := NewRedisStore(nil, "")
	assert.Equal(t, "docstore:draft_rooms:room-1", s.hashKey(roomKey))
	assert.Equal(t, "docstore:draft_rooms:room-1:changed", s.channel(roomKey))
}
