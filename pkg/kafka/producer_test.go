package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestCompressionFromString(t *testing.T) {
	assert.Equal(t, kafkago.Gzip, CompressionFromString("GZIP"))
	assert.Equal(t, kafkago.Lz4, CompressionFromString("lz4"))
	assert.Equal(t, kafkago.Zstd, CompressionFromString("zstd"))
	assert.Equal(t, kafkago.Snappy, CompressionFromString("unknown"))
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage([]byte("cam-1"), []byte(`{}`), map[string]string{"event_type": "capture.uploaded"})

	assert.Equal(t, []byte("cam-1"), msg.Key)
	assert.Equal(t, []byte(`{}`), msg.Value)
	assert.False(t, msg.Time.IsZero())
	if assert.Len(t, msg.Headers, 1) {
		assert.Equal(t, "event_type", msg.Headers[0].Key)
		assert.Equal(t, []byte("capture.uploaded"), msg.Headers[0].Value)
	}
}
