package docstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomKey = Key{Collection: "draft_rooms", DocumentID: "room-1"}

func decodeMap(t *testing.T, doc Document) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(doc.Data, &out))
	return out
}

func receive(t *testing.T, ch <-chan Document) Document {
	t.Helper()
	select {
	case doc, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return doc
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for document")
		return Document{}
	}
}

// receiveRevision reads until a document at rev or later arrives.
func receiveRevision(t *testing.T, ch <-chan Document, rev uint64) Document {
	t.Helper()
	var last uint64
	for {
		doc := receive(t, ch)
		require.Greater(t, doc.Revision, last, "revisions must increase")
		last = doc.Revision
		if doc.Revision >= rev {
			return doc
		}
	}
}

func assertClosed(t *testing.T, ch <-chan Document) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

// testStoreBehaviour runs the Store contract against a fresh store per case.
func testStoreBehaviour(t *testing.T, open func(t *testing.T) Store) {
	cases := []struct {
		name string
		run  func(t *testing.T, s Store)
	}{
		{"get missing", func(t *testing.T, s Store) {
			_, err := s.Get(context.Background(), roomKey)
			assert.ErrorIs(t, err, ErrNotFound)
		}},
		{"merge is top level", func(t *testing.T, s Store) {
			ctx := context.Background()
			require.NoError(t, s.Merge(ctx, roomKey, map[string]any{
				"currentPick":   1,
				"isPaused":      true,
				"allDraftPicks": map[string][]int{"1": {4, 5}},
			}))
			first, err := s.Get(ctx, roomKey)
			require.NoError(t, err)

			require.NoError(t, s.Merge(ctx, roomKey, map[string]any{
				"isPaused":      false,
				"allDraftPicks": map[string][]int{"2": {6}},
			}))
			doc, err := s.Get(ctx, roomKey)
			require.NoError(t, err)
			assert.Greater(t, doc.Revision, first.Revision)
			assert.Equal(t, roomKey, doc.Key)

			fields := decodeMap(t, doc)
			assert.Equal(t, float64(1), fields["currentPick"])
			assert.Equal(t, false, fields["isPaused"])
			// nested objects are replaced whole
			assert.Equal(t, map[string]any{"2": []any{float64(6)}}, fields["allDraftPicks"])
		}},
		{"merge rejects invalid key", func(t *testing.T, s Store) {
			assert.Error(t, s.Merge(context.Background(), Key{Collection: "draft_rooms"}, map[string]any{"a": 1}))
		}},
		{"subscribe sends current then changes", func(t *testing.T, s Store) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			require.NoError(t, s.Merge(ctx, roomKey, map[string]any{"currentPick": 1}))
			current, err := s.Get(ctx, roomKey)
			require.NoError(t, err)

			ch, err := s.Subscribe(ctx, roomKey)
			require.NoError(t, err)
			initial := receive(t, ch)
			assert.Equal(t, current.Revision, initial.Revision)
			assert.Equal(t, float64(1), decodeMap(t, initial)["currentPick"])

			require.NoError(t, s.Merge(ctx, roomKey, map[string]any{"currentPick": 2}))
			doc := receive(t, ch)
			assert.Greater(t, doc.Revision, initial.Revision)
			assert.Equal(t, float64(2), decodeMap(t, doc)["currentPick"])
		}},
		{"subscribe before the document exists", func(t *testing.T, s Store) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			ch, err := s.Subscribe(ctx, roomKey)
			require.NoError(t, err)

			require.NoError(t, s.Merge(ctx, roomKey, map[string]any{"started": true}))
			assert.Equal(t, true, decodeMap(t, receive(t, ch))["started"])
		}},
		{"slow subscriber sees latest", func(t *testing.T, s Store) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			ch, err := s.Subscribe(ctx, roomKey)
			require.NoError(t, err)

			for i := 1; i <= 5; i++ {
				require.NoError(t, s.Merge(ctx, roomKey, map[string]any{"currentPick": i}))
			}
			latest, err := s.Get(ctx, roomKey)
			require.NoError(t, err)

			doc := receiveRevision(t, ch, latest.Revision)
			assert.Equal(t, float64(5), decodeMap(t, doc)["currentPick"])
		}},
		{"subscription ends with its context", func(t *testing.T, s Store) {
			ctx, cancel := context.WithCancel(context.Background())
			ch, err := s.Subscribe(ctx, roomKey)
			require.NoError(t, err)
			cancel()
			assertClosed(t, ch)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.run(t, s)
		})
	}
}
