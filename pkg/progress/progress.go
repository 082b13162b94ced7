package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const defaultInterval = 500 * time.Millisecond

// Sink receives byte counts as pieces of the object arrive. Implementations
// must be safe for concurrent use, every download worker reports to the same
// sink.
type Sink interface {
	Report(n int64)
}

// Discard drops every report. It stands in for the tracker when progress
// output is turned off.
type Discard struct{}

func (Discard) Report(int64) {}

var (
	_ Sink = Discard{}
	_ Sink = &Tracker{}
)

// Tracker renders a single self-overwriting progress line. It writes to
// stderr so the object bytes on stdout stay clean.
type Tracker struct {
	out      io.Writer
	interval time.Duration

	total   int64
	written atomic.Int64
	start   time.Time
	begun   atomic.Bool
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{
		out:      os.Stderr,
		interval: defaultInterval,
		done:     make(chan struct{}),
	}
}

// Begin records the object size and starts the render loop. The download
// pipeline calls it once the probe has sized the object.
func (t *Tracker) Begin(total int64) {
	t.total = total
	t.start = time.Now()
	t.begun.Store(true)
	go t.loop()
}

// Report adds n downloaded bytes to the running count. When the count
// reaches the size Begin announced, the tracker prints its closing line and
// stops on its own, so the summary lands ahead of whatever gets logged after
// the transfer.
func (t *Tracker) Report(n int64) {
	if t.written.Add(n) >= t.total && t.begun.Load() {
		t.Finish()
	}
}

// Finish stops the render loop and prints the closing line. Safe to call
// more than once, and before Begin when the transfer never got going.
func (t *Tracker) Finish() {
	t.shutdown(true)
}

// Stop halts rendering without the closing summary, leaving the cursor on a
// fresh line. For downloads that fail partway.
func (t *Tracker) Stop() {
	t.shutdown(false)
}

func (t *Tracker) shutdown(summary bool) {
	t.once.Do(func() {
		close(t.done)
		if !t.begun.Load() {
			return
		}
		if summary {
			t.render(true)
			return
		}
		t.mu.Lock()
		fmt.Fprintln(t.out)
		t.mu.Unlock()
	})
}

func (t *Tracker) loop() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.render(false)
		}
	}
}

func (t *Tracker) render(final bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	written := t.written.Load()
	elapsed := time.Since(t.start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	rate := float64(written) / elapsed.Seconds()

	if final {
		// trailing spaces wipe the longer in-flight line underneath
		fmt.Fprintf(t.out, "\rdownloaded %s in %s (%s/s)          \n",
			humanize.Bytes(uint64(written)),
			elapsed.Round(time.Millisecond),
			humanize.Bytes(uint64(rate)),
		)
		return
	}

	var percent float64
	if t.total > 0 {
		percent = float64(written) / float64(t.total) * 100
	}
	eta := "--"
	if rate > 0 && written < t.total {
		remaining := float64(t.total-written) / rate
		eta = time.Duration(remaining * float64(time.Second)).Round(time.Second).String()
	}
	fmt.Fprintf(t.out, "\r%5.1f%%  %s of %s  %s/s  eta %s   ",
		percent,
		humanize.Bytes(uint64(written)),
		humanize.Bytes(uint64(t.total)),
		humanize.Bytes(uint64(rate)),
		eta,
	)
}
