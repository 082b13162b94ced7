package consumer

import (
	"io"

	"github.com/replicate/pcat/pkg/extract"
)

var _ Consumer = &Decompressor{}

// Decompressor sniffs the stream's compression format and hands the decoded
// bytes to its delegate. Streams in no recognized format pass through
// untouched. The delegate's length check is skipped since the decoded size
// is unknown until the stream ends.
type Decompressor struct {
	Delegate Consumer
}

func (d *Decompressor) Consume(reader io.Reader, destPath string, _ int64) error {
	decoded, err := extract.Decompress(reader)
	if err != nil {
		return err
	}
	return d.Delegate.Consume(decoded, destPath, -1)
}

func (d *Decompressor) EnableOverwrite() {
	d.Delegate.EnableOverwrite()
}
