package source

import "context"

// Kind identifies which backend serves a target.
type Kind string

const (
	KindS3   Kind = "s3"
	KindHTTP Kind = "http"
)

// ObjectDescriptor is the result of probing a target before any data moves.
type ObjectDescriptor struct {
	Kind     Kind
	Location string
	// VersionID is the object version pinned for the transfer, empty means latest.
	VersionID string
	Size      int64
	// RangeCapable reports whether the origin honors byte-range reads. When false
	// the object can only be fetched with a single whole-object read.
	RangeCapable bool
}

// RangeSource fetches a remote object in byte ranges.
//
// Probe resolves the target and returns its descriptor. Probe failures are
// fatal and never retried: ErrNotFound, ErrAccessDenied or ErrUnsupported.
//
// FetchRange returns exactly end-start+1 bytes for the inclusive range
// [start, end]. A shorter read is a protocol violation and surfaces as a
// transient failure. Fetch errors carry a Transient or Permanent
// classification; the retry policy keys off that classification alone.
type RangeSource interface {
	Probe(ctx context.Context) (*ObjectDescriptor, error)
	FetchRange(ctx context.Context, start, end int64) ([]byte, error)
}
