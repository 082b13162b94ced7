package consumer

import (
	"fmt"
	"io"
	"os"
)

var _ Consumer = &FileWriter{}

// FileWriter writes the object to a file at destPath. It refuses to clobber
// an existing file unless overwrite was enabled.
type FileWriter struct {
	overwrite bool
}

func (f *FileWriter) EnableOverwrite() {
	f.overwrite = true
}

func (f *FileWriter) Consume(reader io.Reader, destPath string, expectedBytes int64) error {
	openFlags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if f.overwrite {
		openFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(destPath, openFlags, 0644)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", destPath, err)
	}
	defer out.Close()

	written, err := io.Copy(out, reader)
	if err != nil {
		return fmt.Errorf("error writing %s: %w", destPath, err)
	}
	if expectedBytes >= 0 && written != expectedBytes {
		return fmt.Errorf("expected %d bytes, wrote %d", expectedBytes, written)
	}
	return nil
}
