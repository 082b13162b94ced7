package extract

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeekReader_Read(t *testing.T) {
	tests := []struct {
		name      string
		contents  string
		peekBytes int
		wantPeek  string
	}{
		{
			name:     "read without peeking",
			contents: "abc123",
		},
		{
			name:      "peek then read everything back",
			contents:  "abc123",
			peekBytes: 6,
			wantPeek:  "abc123",
		},
		{
			name:      "read spans buffer and reader",
			contents:  "abc123",
			peekBytes: 3,
			wantPeek:  "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &peekReader{reader: strings.NewReader(tt.contents)}
			if tt.peekBytes > 0 {
				peeked, err := p.Peek(tt.peekBytes)
				require.NoError(t, err)
				assert.Equal(t, tt.wantPeek, string(peeked))
			}

			contents, err := io.ReadAll(p)
			require.NoError(t, err)
			assert.Equal(t, tt.contents, string(contents))
		})
	}
}

func TestPeekReader_PeekPastEOF(t *testing.T) {
	p := &peekReader{reader: strings.NewReader("abc")}

	peeked, err := p.Peek(8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "abc", string(peeked))
}

func TestPeekReader_PeekTwice(t *testing.T) {
	p := &peekReader{reader: strings.NewReader("abc123")}

	peeked, err := p.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(peeked))

	peeked, err = p.Peek(4)
	require.NoError(t, err)
	assert.Equal(t, "abc1", string(peeked))

	contents, err := io.ReadAll(p)
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(contents))
}
