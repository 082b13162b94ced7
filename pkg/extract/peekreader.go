package extract

import (
	"bytes"
	"errors"
	"io"
)

var _ io.Reader = &peekReader{}

// peekReader lets the caller inspect the head of a stream without consuming
// it. Peek must happen before the first Read; peeked bytes are replayed by
// Read ahead of the rest of the stream.
type peekReader struct {
	reader io.Reader
	buffer *bytes.Buffer
}

func (p *peekReader) Read(b []byte) (int, error) {
	if p.buffer != nil && p.buffer.Len() > 0 {
		n, err := p.buffer.Read(b)
		if errors.Is(err, io.EOF) {
			err = nil
		}
		return n, err
	}
	return p.reader.Read(b)
}

// Peek returns the first n bytes of the stream. Short streams yield a short
// result along with the underlying reader's error, typically io.EOF.
func (p *peekReader) Peek(n int) ([]byte, error) {
	if p.buffer == nil {
		p.buffer = bytes.NewBuffer(make([]byte, 0, n))
	}
	if missing := n - p.buffer.Len(); missing > 0 {
		if _, err := io.CopyN(p.buffer, p.reader, int64(missing)); err != nil {
			return p.buffer.Bytes(), err
		}
	}
	return p.buffer.Bytes()[:n], nil
}
