package download

// Chunk is one contiguous byte range of the object. Index is its 0-based
// position in the overall byte order, Start and End are inclusive offsets.
type Chunk struct {
	Index int64
	Start int64
	End   int64
}

func (c Chunk) Size() int64 {
	return c.End - c.Start + 1
}

// PlanChunks partitions [0, size) into ranges of chunkSize bytes, the last
// one covering whatever remains. A zero-size object yields no chunks. When
// the source cannot serve partial ranges, or one chunk already covers the
// object, the plan is a single whole-object chunk. chunkSize must be
// positive.
func PlanChunks(size, chunkSize int64, rangeCapable bool) []Chunk {
	if size == 0 {
		return nil
	}
	if !rangeCapable || chunkSize >= size {
		return []Chunk{{Index: 0, Start: 0, End: size - 1}}
	}

	count := (size + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * chunkSize
		end := start + chunkSize - 1
		if end > size-1 {
			end = size - 1
		}
		chunks = append(chunks, Chunk{Index: i, Start: start, End: end})
	}
	return chunks
}
