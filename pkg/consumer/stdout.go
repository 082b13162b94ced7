package consumer

import (
	"fmt"
	"io"
	"os"
)

var _ Consumer = &Stdout{}

// Stdout streams the object to standard output. destPath and expectedBytes
// are ignored: a pipe cannot be re-opened for verification, and anything we
// already wrote is gone.
type Stdout struct{}

func (Stdout) Consume(reader io.Reader, _ string, _ int64) error {
	if _, err := io.Copy(os.Stdout, reader); err != nil {
		return fmt.Errorf("error writing to stdout: %w", err)
	}
	return nil
}

func (Stdout) EnableOverwrite() {
	// stdout has nothing to overwrite
}
