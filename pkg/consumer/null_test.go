package consumer_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicate/pcat/pkg/consumer"
)

func TestNullWriter_Consume(t *testing.T) {
	r := require.New(t)

	content := generateTestContent(kB)
	reader := bytes.NewReader(content)

	nullConsumer := &consumer.NullWriter{}
	r.NoError(nullConsumer.Consume(reader, "", kB))

	_, _ = reader.Seek(0, 0)
	err := nullConsumer.Consume(reader, "", kB-100)
	r.Error(err)
	r.Contains(err.Error(), "expected")
}

func TestNullWriter_ConsumeSkipsCheckForUnknownSize(t *testing.T) {
	r := require.New(t)

	reader := bytes.NewReader(generateTestContent(kB))
	nullConsumer := &consumer.NullWriter{}
	r.NoError(nullConsumer.Consume(reader, "", -1))
}
