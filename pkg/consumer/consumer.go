package consumer

import "io"

// A Consumer takes the assembled byte stream a downloader produces and
// delivers it somewhere: a file, stdout, or nowhere at all.
type Consumer interface {
	// Consume drains reader into the consumer's destination. expectedBytes
	// is the size the origin reported for the object; consumers that can
	// verify it cheaply should do so. A negative value skips the check,
	// for streams whose final length is not knowable up front.
	Consume(reader io.Reader, destPath string, expectedBytes int64) error

	// EnableOverwrite allows the consumer to replace whatever already
	// exists at its destination, for consumers where that means anything.
	EnableOverwrite()
}
