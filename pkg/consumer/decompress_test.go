package consumer_test

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicate/pcat/pkg/consumer"
)

func TestDecompressor_ConsumeGzip(t *testing.T) {
	r := require.New(t)

	content := generateTestContent(kB)
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, err := gz.Write(content)
	r.NoError(err)
	r.NoError(gz.Close())

	destPath := filepath.Join(t.TempDir(), "object.bin")
	decompressor := &consumer.Decompressor{Delegate: &consumer.FileWriter{}}
	r.NoError(decompressor.Consume(&compressed, destPath, int64(compressed.Len())))

	written, err := os.ReadFile(destPath)
	r.NoError(err)
	r.Equal(content, written)
}

func TestDecompressor_ConsumePassthrough(t *testing.T) {
	r := require.New(t)

	content := []byte("plain bytes, no compression here")
	destPath := filepath.Join(t.TempDir(), "object.bin")

	decompressor := &consumer.Decompressor{Delegate: &consumer.FileWriter{}}
	r.NoError(decompressor.Consume(bytes.NewReader(content), destPath, int64(len(content))))

	written, err := os.ReadFile(destPath)
	r.NoError(err)
	r.Equal(content, written)
}

func TestDecompressor_EnableOverwritePropagates(t *testing.T) {
	r := require.New(t)

	destPath := filepath.Join(t.TempDir(), "object.bin")
	r.NoError(os.WriteFile(destPath, bytes.Repeat([]byte("x"), 2*kB), 0644))

	content := generateTestContent(kB)
	decompressor := &consumer.Decompressor{Delegate: &consumer.FileWriter{}}
	decompressor.EnableOverwrite()
	r.NoError(decompressor.Consume(bytes.NewReader(content), destPath, kB))

	written, err := os.ReadFile(destPath)
	r.NoError(err)
	r.Equal(content, written)
}
