package download

import (
	"github.com/replicate/pcat/pkg/client"
	"github.com/replicate/pcat/pkg/progress"
	"github.com/replicate/pcat/pkg/retry"
)

type Options struct {
	// Maximum number of chunks to fetch in parallel. If set to zero, 10
	// will be used.
	Concurrency int

	// Number of bytes per ranged request. If set to zero, 8 MiB will be
	// used. The planner gives the final chunk whatever remains.
	ChunkSize int64

	// Retry governs per-chunk reattempts after transient failures. The
	// zero value is replaced with retry.DefaultPolicy.
	Retry retry.Policy

	// Progress receives byte counts as chunks complete. Nil discards them.
	Progress progress.Sink

	// VersionID pins an object-store target to one object version. It is
	// rejected for plain http targets.
	VersionID string

	Client client.Options
}
