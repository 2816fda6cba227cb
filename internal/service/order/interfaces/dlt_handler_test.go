package interfaces

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teahouse/internal/pkg/mq"
)

// brokenReader 模拟 broker 不可用，每次读取都失败
type brokenReader struct {
	fetches atomic.Int64
}

func (r *brokenReader) FetchMessage(context.Context) (kafka.Message, error) {
	r.fetches.Add(1)
	return kafka.Message{}, errors.New("broker unavailable")
}

func (r *brokenReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }

func (r *brokenReader) Close() error { return nil }

func TestDltConsumerCommitsDeadLetters(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{
		Key:   []byte("o-1"),
		Value: []byte(`not json`),
		Headers: []kafka.Header{
			{Key: mq.HeaderOriginalTopic, Value: []byte("fulfillment-events")},
			{Key: mq.HeaderExceptionMessage, Value: []byte("invalid payload")},
		},
	}}}
	a := NewDltConsumerAdapter(reader, "fulfillment-events-dlt")

	require.NoError(t, a.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	a.Stop(context.Background())
	assert.True(t, reader.closed)
}

func TestDltConsumerBacksOffOnFetchError(t *testing.T) {
	old := fetchRetryDelay
	fetchRetryDelay = 50 * time.Millisecond
	t.Cleanup(func() { fetchRetryDelay = old })

	reader := &brokenReader{}
	a := NewDltConsumerAdapter(reader, "fulfillment-events-dlt")
	require.NoError(t, a.Start(context.Background()))
	time.Sleep(200 * time.Millisecond)
	a.Stop(context.Background())

	n := reader.fetches.Load()
	assert.GreaterOrEqual(t, n, int64(2), "keeps retrying")
	assert.LessOrEqual(t, n, int64(10), "waits between failed fetches")
}

func TestFulfillmentConsumerBacksOffOnFetchError(t *testing.T) {
	old := fetchRetryDelay
	fetchRetryDelay = 50 * time.Millisecond
	t.Cleanup(func() { fetchRetryDelay = old })

	reader := &brokenReader{}
	a := NewFulfillmentConsumerAdapter(reader, "fulfillment-events", &scriptedProcessor{}, &captureWriter{})
	require.NoError(t, a.Start(context.Background()))
	time.Sleep(200 * time.Millisecond)
	a.Stop(context.Background())

	assert.LessOrEqual(t, reader.fetches.Load(), int64(10))
}
