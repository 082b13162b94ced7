package download

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
)

func TestCollectorReordersChunks(t *testing.T) {
	content := []byte("abcdefghijklmnopqrstuvwxy") // 25 bytes, chunks of 10
	chunks := PlanChunks(25, 10, true)
	require.Len(t, chunks, 3)

	var out bytes.Buffer
	coll := newCollector(&out, 3, nil)

	// chunk 2 lands first and has to wait for 0 and 1
	require.NoError(t, coll.receive(2, content[20:25]))
	assert.Zero(t, out.Len())
	assert.Len(t, coll.pending, 1)

	require.NoError(t, coll.receive(0, content[0:10]))
	assert.Equal(t, content[0:10], out.Bytes())
	assert.Len(t, coll.pending, 1)

	require.NoError(t, coll.receive(1, content[10:20]))
	assert.Equal(t, content, out.Bytes())
	assert.Empty(t, coll.pending)
	assert.True(t, coll.done())
}

func TestCollectorRejectsDuplicates(t *testing.T) {
	t.Run("already written", func(t *testing.T) {
		coll := newCollector(&bytes.Buffer{}, 3, nil)
		require.NoError(t, coll.receive(0, []byte("aa")))

		err := coll.receive(0, []byte("aa"))
		assert.ErrorIs(t, err, errDuplicateChunk)
	})

	t.Run("already buffered", func(t *testing.T) {
		coll := newCollector(&bytes.Buffer{}, 3, nil)
		require.NoError(t, coll.receive(2, []byte("cc")))

		err := coll.receive(2, []byte("cc"))
		assert.ErrorIs(t, err, errDuplicateChunk)
	})
}

func TestCollectorReleasesWindowOnWrite(t *testing.T) {
	sem := semaphore.NewWeighted(2)
	require.True(t, sem.TryAcquire(2)) // both chunks dispatched

	coll := newCollector(&bytes.Buffer{}, 2, sem)

	require.NoError(t, coll.receive(1, []byte("bb")))
	assert.False(t, sem.TryAcquire(1), "buffered chunk must not release the window")

	require.NoError(t, coll.receive(0, []byte("aa")))
	assert.True(t, sem.TryAcquire(2), "both chunks written, both permits back")
}

func TestCollectorRunDrainsOutOfOrderFeed(t *testing.T) {
	content := []byte("abcdefghijklmnopqrstuvwxy")
	var out bytes.Buffer
	coll := newCollector(&out, 3, nil)

	results := make(chan chunkResult, 3)
	results <- chunkResult{chunk: Chunk{Index: 2, Start: 20, End: 24}, data: content[20:25]}
	results <- chunkResult{chunk: Chunk{Index: 0, Start: 0, End: 9}, data: content[0:10]}
	results <- chunkResult{chunk: Chunk{Index: 1, Start: 10, End: 19}, data: content[10:20]}

	// run returns as soon as the last index is written, no close needed
	require.NoError(t, coll.run(context.Background(), results))
	assert.Equal(t, content, out.Bytes())
}

func TestCollectorRunPropagatesFailureResults(t *testing.T) {
	boom := errors.New("chunk 1 (bytes 10-19): fetch failed")
	results := make(chan chunkResult, 1)
	results <- chunkResult{chunk: Chunk{Index: 1}, err: boom}

	coll := newCollector(&bytes.Buffer{}, 3, nil)
	err := coll.run(context.Background(), results)
	assert.ErrorIs(t, err, boom)
}

func TestCollectorRunReportsEarlyClose(t *testing.T) {
	results := make(chan chunkResult, 1)
	results <- chunkResult{chunk: Chunk{Index: 0, Start: 0, End: 1}, data: []byte("aa")}
	close(results)

	coll := newCollector(&bytes.Buffer{}, 2, nil)
	err := coll.run(context.Background(), results)
	assert.ErrorIs(t, err, errIncomplete)
	assert.ErrorContains(t, err, "wrote 1 of 2 chunks")
}

func TestCollectorRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coll := newCollector(&bytes.Buffer{}, 1, nil)
	err := coll.run(ctx, make(chan chunkResult))
	assert.ErrorIs(t, err, context.Canceled)
}
