package pcat

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/replicate/pcat/pkg/consumer"
	"github.com/replicate/pcat/pkg/download"
	"github.com/replicate/pcat/pkg/logging"
)

type Getter struct {
	Downloader download.Strategy
	Consumer   consumer.Consumer
}

// DownloadTarget fetches target and hands the assembled stream to the
// consumer, stdout when none is set. dest names the consumer's destination
// and is purely informational for consumers that have none. It returns the
// object size and the elapsed wall time.
//
// The stream is consumed while chunks are still arriving, so there is no
// separate download and write phase to time.
func (g *Getter) DownloadTarget(ctx context.Context, target string, dest string) (int64, time.Duration, error) {
	if g.Consumer == nil {
		g.Consumer = &consumer.Stdout{}
	}
	logger := logging.GetLogger()
	startTime := time.Now()
	stream, fileSize, err := g.Downloader.Fetch(ctx, target)
	if err != nil {
		return fileSize, 0, err
	}

	err = g.Consumer.Consume(stream, dest, fileSize)
	if err != nil {
		return fileSize, 0, fmt.Errorf("error consuming stream: %w", err)
	}
	elapsed := time.Since(startTime)

	size := humanize.Bytes(uint64(fileSize))
	throughput := humanize.Bytes(uint64(float64(fileSize) / elapsed.Seconds()))
	logger.Info().
		Str("dest", dest).
		Str("size", size).
		Str("throughput", fmt.Sprintf("%s/s", throughput)).
		Str("elapsed", fmt.Sprintf("%.3fs", elapsed.Seconds())).
		Msg("Complete")
	return fileSize, elapsed, nil
}
