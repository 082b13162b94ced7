package extract

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		expectType string
	}{
		{
			name:       "GZIP",
			input:      []byte{0x1f, 0x8b},
			expectType: "extract.gzipDecompressor",
		},
		{
			name:       "BZIP2",
			input:      []byte{0x42, 0x5a},
			expectType: "extract.bzip2Decompressor",
		},
		{
			name:       "XZ",
			input:      []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
			expectType: "extract.xzDecompressor",
		},
		{
			name:       "LZ4",
			input:      []byte{0x04, 0x22, 0x4d, 0x18},
			expectType: "extract.lz4Decompressor",
		},
		{
			name:       "Less than 2 bytes",
			input:      []byte{0x1f},
			expectType: "",
		},
		{
			name:       "UNKNOWN",
			input:      []byte{0xde, 0xad},
			expectType: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detectFormat(tt.input)
			assert.Equal(t, tt.expectType, stringFromInterface(result))
		})
	}
}

func stringFromInterface(i interface{}) string {
	if i == nil {
		return ""
	}
	return fmt.Sprintf("%T", i)
}

func TestDecompressRoundTrip(t *testing.T) {
	content := []byte(strings.Repeat("decompression test payload. ", 128))

	tests := []struct {
		name     string
		compress func(t *testing.T, data []byte) []byte
	}{
		{
			name: "gzip",
			compress: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				w := gzip.NewWriter(&buf)
				_, err := w.Write(data)
				require.NoError(t, err)
				require.NoError(t, w.Close())
				return buf.Bytes()
			},
		},
		{
			name: "lz4",
			compress: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				w := lz4.NewWriter(&buf)
				_, err := w.Write(data)
				require.NoError(t, err)
				require.NoError(t, w.Close())
				return buf.Bytes()
			},
		},
		{
			name: "xz",
			compress: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				w, err := xz.NewWriter(&buf)
				require.NoError(t, err)
				_, err = w.Write(data)
				require.NoError(t, err)
				require.NoError(t, w.Close())
				return buf.Bytes()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := tt.compress(t, content)
			decoded, err := Decompress(bytes.NewReader(compressed))
			require.NoError(t, err)

			result, err := io.ReadAll(decoded)
			require.NoError(t, err)
			assert.Equal(t, content, result)
		})
	}
}

func TestDecompressPassthrough(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{
			name:  "plain text",
			input: []byte("not compressed at all, just bytes"),
		},
		{
			name:  "shorter than the magic window",
			input: []byte("abc"),
		},
		{
			name:  "empty stream",
			input: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decompress(bytes.NewReader(tt.input))
			require.NoError(t, err)

			result, err := io.ReadAll(out)
			require.NoError(t, err)
			assert.Equal(t, tt.input, result)
		})
	}
}
