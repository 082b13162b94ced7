package extract

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"

	"github.com/replicate/pcat/pkg/logging"
)

const (
	peekSize = 8
)

var (
	gzipMagic = []byte{0x1F, 0x8B}
	bzipMagic = []byte{0x42, 0x5A}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

var _ decompressor = gzipDecompressor{}
var _ decompressor = bzip2Decompressor{}
var _ decompressor = xzDecompressor{}
var _ decompressor = lz4Decompressor{}

// decompressor represents different compression formats.
type decompressor interface {
	decompress(r io.Reader) (io.Reader, error)
}

// Decompress sniffs the head of the stream for a known compression format
// and returns a reader of the decoded bytes. Streams in no recognized
// format pass through unchanged, including streams too short to hold a
// magic number.
func Decompress(r io.Reader) (io.Reader, error) {
	peeker := &peekReader{reader: r}
	magic, err := peeker.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error sniffing compression format: %w", err)
	}
	format := detectFormat(magic)
	if format == nil {
		return peeker, nil
	}
	return format.decompress(peeker)
}

// detectFormat returns the appropriate extractor according to the magic number.
func detectFormat(input []byte) decompressor {
	log := logging.GetLogger()
	inputSize := len(input)

	if inputSize < 2 {
		return nil
	}
	// pad to 8 bytes
	if inputSize < peekSize {
		input = append(input, make([]byte, peekSize-inputSize)...)
	}

	switch true {
	case bytes.HasPrefix(input, gzipMagic):
		log.Debug().
			Str("type", "gzip").
			Msg("Compression Format")
		return gzipDecompressor{}
	case bytes.HasPrefix(input, bzipMagic):
		log.Debug().
			Str("type", "bzip2").
			Msg("Compression Format")
		return bzip2Decompressor{}
	case bytes.HasPrefix(input, lz4Magic):
		log.Debug().
			Str("type", "lz4").
			Msg("Compression Format")
		return lz4Decompressor{}
	case bytes.HasPrefix(input, xzMagic):
		log.Debug().
			Str("type", "xz").
			Msg("Compression Format")
		return xzDecompressor{}
	default:
		log.Debug().
			Str("type", "none").
			Msg("Compression Format")
		return nil
	}
}

type gzipDecompressor struct{}

func (d gzipDecompressor) decompress(r io.Reader) (io.Reader, error) {
	return gzip.NewReader(r)
}

type bzip2Decompressor struct{}

func (d bzip2Decompressor) decompress(r io.Reader) (io.Reader, error) {
	return bzip2.NewReader(r), nil
}

type xzDecompressor struct{}

func (d xzDecompressor) decompress(r io.Reader) (io.Reader, error) {
	return xz.NewReader(r)
}

type lz4Decompressor struct{}

func (d lz4Decompressor) decompress(r io.Reader) (io.Reader, error) {
	return lz4.NewReader(r), nil
}
