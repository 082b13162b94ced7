package consumer

import (
	"fmt"
	"io"
)

var _ Consumer = &NullWriter{}

// NullWriter discards the stream. It still drains the reader fully so the
// download actually happens, and verifies the promised byte count arrived.
type NullWriter struct{}

func (NullWriter) Consume(reader io.Reader, _ string, expectedBytes int64) error {
	bytesRead, err := io.Copy(io.Discard, reader)
	if err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}
	if expectedBytes >= 0 && bytesRead != expectedBytes {
		return fmt.Errorf("expected %d bytes, read %d", expectedBytes, bytesRead)
	}
	return nil
}

func (NullWriter) EnableOverwrite() {
	// nothing to overwrite
}
