package interfaces

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teahouse/internal/pkg/mq"
	"teahouse/internal/service/order/domain"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, io.EOF
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type captureWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type scriptedProcessor struct {
	mu      sync.Mutex
	errs    []error
	calls   int
	updates []domain.FulfillmentUpdate
}

func (p *scriptedProcessor) HandleFulfillmentUpdate(_ context.Context, u *domain.FulfillmentUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.updates = append(p.updates, *u)
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func TestProcessMessage(t *testing.T) {
	retryBackoff = time.Millisecond
	ctx := context.Background()

	t.Run("applies update and falls back to key", func(t *testing.T) {
		proc := &scriptedProcessor{}
		dlt := &captureWriter{}
		a := NewFulfillmentConsumerAdapter(&fakeReader{}, "fulfillment-events", proc, dlt)

		a.processMessage(ctx, kafka.Message{Key: []byte("o-1"), Value: []byte(`{"status":"shipped","trackingNumber":"SF123"}`)})

		require.Len(t, proc.updates, 1)
		assert.Equal(t, "o-1", proc.updates[0].OrderID)
		assert.Equal(t, domain.StatusShipped, proc.updates[0].Status)
		assert.Equal(t, "SF123", proc.updates[0].TrackingNumber)
		assert.Empty(t, dlt.msgs)
	})

	t.Run("malformed payload goes to dead letter", func(t *testing.T) {
		proc := &scriptedProcessor{}
		dlt := &captureWriter{}
		a := NewFulfillmentConsumerAdapter(&fakeReader{}, "fulfillment-events", proc, dlt)

		a.processMessage(ctx, kafka.Message{Topic: "fulfillment-events", Partition: 2, Offset: 41, Key: []byte("o-1"), Value: []byte("{oops")})

		assert.Zero(t, proc.calls)
		require.Len(t, dlt.msgs, 1)
		assert.Equal(t, "fulfillment-events", mq.HeaderValue(dlt.msgs[0].Headers, mq.HeaderOriginalTopic))
		assert.Equal(t, "2", mq.HeaderValue(dlt.msgs[0].Headers, mq.HeaderOriginalPartition))
		assert.Equal(t, "41", mq.HeaderValue(dlt.msgs[0].Headers, mq.HeaderOriginalOffset))
		assert.Equal(t, []byte("{oops"), dlt.msgs[0].Value)
	})

	t.Run("business errors are not retried", func(t *testing.T) {
		proc := &scriptedProcessor{errs: []error{domain.ErrInvalidTransition}}
		dlt := &captureWriter{}
		a := NewFulfillmentConsumerAdapter(&fakeReader{}, "fulfillment-events", proc, dlt)

		a.processMessage(ctx, kafka.Message{Value: []byte(`{"orderId":"o-2","status":"delivered"}`)})

		assert.Equal(t, 1, proc.calls)
		require.Len(t, dlt.msgs, 1)
		assert.Contains(t, mq.HeaderValue(dlt.msgs[0].Headers, mq.HeaderExceptionMessage), "invalid")
	})

	t.Run("infrastructure errors are retried", func(t *testing.T) {
		boom := errors.New("connection reset")
		proc := &scriptedProcessor{errs: []error{boom, boom}}
		dlt := &captureWriter{}
		a := NewFulfillmentConsumerAdapter(&fakeReader{}, "fulfillment-events", proc, dlt)

		a.processMessage(ctx, kafka.Message{Value: []byte(`{"orderId":"o-3","status":"processing"}`)})

		assert.Equal(t, 3, proc.calls)
		assert.Empty(t, dlt.msgs)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		boom := errors.New("connection reset")
		proc := &scriptedProcessor{errs: []error{boom, boom, boom}}
		dlt := &captureWriter{}
		a := NewFulfillmentConsumerAdapter(&fakeReader{}, "fulfillment-events", proc, dlt)

		a.processMessage(ctx, kafka.Message{Value: []byte(`{"orderId":"o-4","status":"processing"}`)})

		assert.Equal(t, maxAttempts, proc.calls)
		require.Len(t, dlt.msgs, 1)
		assert.Equal(t, "connection reset", mq.HeaderValue(dlt.msgs[0].Headers, mq.HeaderExceptionMessage))
	})
}

func TestConsumerCommitsEveryMessage(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		{Key: []byte("o-1"), Value: []byte(`{"status":"processing"}`)},
		{Key: []byte("o-2"), Value: []byte(`not json`)},
	}}
	proc := &scriptedProcessor{}
	dlt := &captureWriter{}
	a := NewFulfillmentConsumerAdapter(reader, "fulfillment-events", proc, dlt)

	require.NoError(t, a.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commits() == 2 }, time.Second, 5*time.Millisecond)
	a.Stop(context.Background())

	assert.True(t, reader.closed)
	assert.Equal(t, 1, proc.calls)
	assert.Len(t, dlt.msgs, 1)
}

func TestPermanent(t *testing.T) {
	assert.True(t, permanent(domain.ErrOrderNotFound))
	assert.True(t, permanent(domain.ErrStatusConflict))
	assert.False(t, permanent(errors.New("timeout")))
}
