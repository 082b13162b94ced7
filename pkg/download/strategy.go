package download

import (
	"context"
	"io"
)

type Strategy interface {
	// Fetch retrieves the object named by target and returns a reader that
	// delivers its bytes in order, plus the object size learned from the
	// probe. Fetch returns as soon as the transfer is underway; errors
	// after that point surface on the reader.
	Fetch(ctx context.Context, target string) (result io.Reader, fileSize int64, err error)
}
