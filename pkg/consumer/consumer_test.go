package consumer_test

import (
	"math/rand"
)

const kB = 1024

// generateTestContent generates a byte slice of a deterministic size
func generateTestContent(size int64) []byte {
	content := make([]byte, size)
	rnd := rand.New(rand.NewSource(99))
	_, _ = rnd.Read(content)
	return content
}
