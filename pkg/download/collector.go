package download

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/semaphore"
)

var (
	errDuplicateChunk = errors.New("chunk result delivered twice")
	errIncomplete     = errors.New("chunk results ended early")
)

// chunkResult is one worker's outcome for one chunk, produced once and
// consumed exactly once by the collector.
type chunkResult struct {
	chunk Chunk
	data  []byte
	err   error
}

// collector reassembles out-of-order chunk results into ascending index
// order and writes each payload to out exactly once. next and pending are
// owned by the collector alone.
type collector struct {
	out   io.Writer
	total int64
	sem   *semaphore.Weighted

	next    int64
	pending map[int64][]byte
}

func newCollector(out io.Writer, total int64, sem *semaphore.Weighted) *collector {
	return &collector{
		out:     out,
		total:   total,
		sem:     sem,
		pending: map[int64][]byte{},
	}
}

func (c *collector) done() bool {
	return c.next == c.total
}

// run consumes results until the object is fully written, a result carries a
// failure, the channel closes early, or ctx ends.
func (c *collector) run(ctx context.Context, results <-chan chunkResult) error {
	for !c.done() {
		select {
		case res, ok := <-results:
			if !ok {
				return fmt.Errorf("%w: wrote %d of %d chunks", errIncomplete, c.next, c.total)
			}
			if res.err != nil {
				return res.err
			}
			if err := c.receive(res.chunk.Index, res.data); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// receive folds one completed chunk into the output stream, draining any
// buffered successors that become contiguous behind it.
func (c *collector) receive(index int64, data []byte) error {
	if index < c.next {
		return fmt.Errorf("%w: chunk %d already written", errDuplicateChunk, index)
	}
	if _, buffered := c.pending[index]; buffered {
		return fmt.Errorf("%w: chunk %d already buffered", errDuplicateChunk, index)
	}
	if index > c.next {
		c.pending[index] = data
		return nil
	}

	for ; data != nil; data = c.takePending() {
		if _, err := c.out.Write(data); err != nil {
			return fmt.Errorf("writing chunk %d: %w", c.next, err)
		}
		c.next++
		if c.sem != nil {
			// hand the dispatch window one slot back
			c.sem.Release(1)
		}
	}
	return nil
}

func (c *collector) takePending() []byte {
	data, ok := c.pending[c.next]
	if !ok {
		return nil
	}
	delete(c.pending, c.next)
	return data
}
