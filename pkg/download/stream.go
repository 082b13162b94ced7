package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/replicate/pcat/pkg/logging"
	"github.com/replicate/pcat/pkg/progress"
	"github.com/replicate/pcat/pkg/retry"
	"github.com/replicate/pcat/pkg/source"
)

const (
	defaultConcurrency = 10
	defaultChunkSize   = 8 * humanize.MiByte
)

// StreamMode fetches an object as parallel ranged reads and streams the
// reassembled bytes through a pipe. Memory stays bounded by the concurrency
// level times the chunk size no matter how large the object is.
type StreamMode struct {
	Options

	// newSource lets tests substitute a fake backend.
	newSource func(ctx context.Context, target *source.Target) (source.RangeSource, error)
}

var _ Strategy = &StreamMode{}

func GetStreamMode(opts Options) *StreamMode {
	m := &StreamMode{Options: opts}
	m.newSource = m.defaultSource
	return m
}

func (m *StreamMode) defaultSource(ctx context.Context, target *source.Target) (source.RangeSource, error) {
	switch target.Kind {
	case source.KindS3:
		return source.NewS3Source(ctx, target)
	default:
		return source.NewHTTPSource(target.URL, m.Client), nil
	}
}

func (m *StreamMode) concurrency() int {
	if m.Concurrency > 0 {
		return m.Concurrency
	}
	return defaultConcurrency
}

func (m *StreamMode) chunkSize() int64 {
	if m.ChunkSize > 0 {
		return m.ChunkSize
	}
	return defaultChunkSize
}

func (m *StreamMode) retryPolicy() retry.Policy {
	if m.Retry.MaxAttempts > 0 {
		return m.Retry
	}
	return retry.DefaultPolicy()
}

func (m *StreamMode) progressSink() progress.Sink {
	if m.Progress != nil {
		return m.Progress
	}
	return progress.Discard{}
}

func (m *StreamMode) Fetch(ctx context.Context, target string) (io.Reader, int64, error) {
	logger := logging.GetLogger()

	parsed, err := source.ParseTarget(target, m.VersionID)
	if err != nil {
		return nil, -1, err
	}
	src, err := m.newSource(ctx, parsed)
	if err != nil {
		return nil, -1, err
	}
	descriptor, err := src.Probe(ctx)
	if err != nil {
		return nil, -1, err
	}

	chunks := PlanChunks(descriptor.Size, m.chunkSize(), descriptor.RangeCapable)
	concurrency := m.concurrency()
	if concurrency > len(chunks) {
		concurrency = len(chunks)
	}

	logger.Debug().
		Str("target", descriptor.Location).
		Int64("size", descriptor.Size).
		Int64("chunk_size", m.chunkSize()).
		Int("chunks", len(chunks)).
		Int("concurrency", concurrency).
		Bool("range_capable", descriptor.RangeCapable).
		Msg("Downloading")

	if begin, ok := m.progressSink().(interface{ Begin(total int64) }); ok {
		begin.Begin(descriptor.Size)
	}

	if len(chunks) == 0 {
		return bytes.NewReader(nil), 0, nil
	}

	return m.stream(ctx, src, chunks, concurrency), descriptor.Size, nil
}

// stream connects the dispatcher, the workers and the collector with bounded
// channels and returns the read half of the pipe the collector writes into.
// The semaphore caps how many chunks may be past the dispatcher but not yet
// written to the pipe, which keeps the collector's reorder buffer below the
// worker count.
func (m *StreamMode) stream(ctx context.Context, src source.RangeSource, chunks []Chunk, concurrency int) io.Reader {
	jobs := make(chan Chunk, concurrency)
	results := make(chan chunkResult, concurrency)
	sem := semaphore.NewWeighted(int64(concurrency))
	pipeReader, pipeWriter := io.Pipe()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(jobs)
		for _, chunk := range chunks {
			// the permit comes back once the chunk's bytes reach the pipe
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			select {
			case jobs <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		workers.Add(1)
		group.Go(func() error {
			defer workers.Done()
			return m.worker(ctx, src, jobs, results)
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	coll := newCollector(pipeWriter, int64(len(chunks)), sem)
	group.Go(func() error {
		return coll.run(ctx, results)
	})

	go func() {
		// a nil error closes the pipe with plain EOF
		pipeWriter.CloseWithError(group.Wait())
	}()

	return pipeReader
}

func (m *StreamMode) worker(ctx context.Context, src source.RangeSource, jobs <-chan Chunk, results chan<- chunkResult) error {
	policy := m.retryPolicy()
	sink := m.progressSink()
	for chunk := range jobs {
		data, err := m.fetchChunk(ctx, src, chunk, policy)
		if err != nil {
			err = fmt.Errorf("chunk %d (bytes %d-%d): %w", chunk.Index, chunk.Start, chunk.End, err)
			select {
			case results <- chunkResult{chunk: chunk, err: err}:
			case <-ctx.Done():
			}
			return err
		}
		sink.Report(chunk.Size())
		select {
		case results <- chunkResult{chunk: chunk, data: data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *StreamMode) fetchChunk(ctx context.Context, src source.RangeSource, chunk Chunk, policy retry.Policy) ([]byte, error) {
	var data []byte
	err := policy.Do(ctx, source.IsTransient, func() error {
		var fetchErr error
		data, fetchErr = src.FetchRange(ctx, chunk.Start, chunk.End)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
