package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "snappy")

	require.NoError(t, p.Publish(context.Background(), "results", []byte("k"), map[string]int{"horizon": 7}))
	require.NoError(t, p.Publish(context.Background(), "results", nil, "raw"))
	require.Len(t, w.msgs, 2)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, 7, decoded["horizon"])
	assert.Equal(t, "results", w.msgs[0].Topic)
	assert.Equal(t, []byte("raw"), w.msgs[1].Value)

	w.err = errors.New("broker down")
	assert.Error(t, p.Publish(context.Background(), "results", nil, "x"))
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
}

func TestHeaderValue(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "job_id", Value: []byte("abc")}}}
	assert.Equal(t, "abc", HeaderValue(km, "job_id"))
	assert.Equal(t, "", HeaderValue(km, "missing"))
}
