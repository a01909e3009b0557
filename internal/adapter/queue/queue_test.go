package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/gorder-checkout/internal/usecase"
)

type ackRecord struct {
	tag     uint64
	ack     bool
	requeue bool
}

type fakeAcker struct {
	mu   sync.Mutex
	acks []ackRecord
}

func (f *fakeAcker) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, ackRecord{tag: tag, ack: true})
	return nil
}

func (f *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, ackRecord{tag: tag, requeue: requeue})
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error { return f.Nack(tag, false, requeue) }

type fakeChannel struct {
	deliveries chan amqp.Delivery
	prefetch   int
}

func (f *fakeChannel) Qos(n, _ int, _ bool) error {
	f.prefetch = n
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

type fakeRecorder struct {
	got []usecase.OrderIntentSubmittedMsg
	err error
}

func (f *fakeRecorder) Handle(_ context.Context, msg usecase.OrderIntentSubmittedMsg) error {
	f.got = append(f.got, msg)
	return f.err
}

func TestJSONHandlerPoison(t *testing.T) {
	rec := &fakeRecorder{}
	h := NewOrderIntentHandler(rec)

	err := h.Handle(context.Background(), amqp.Delivery{Body: []byte(`{"orderId":`)})
	assert.True(t, isPoison(err))
	assert.Empty(t, rec.got)

	err = h.Handle(context.Background(), amqp.Delivery{Body: []byte(`{"orderId":"AS-2026-123456","total":576}`)})
	require.NoError(t, err)
	require.Len(t, rec.got, 1)
	assert.Equal(t, int64(576), rec.got[0].Total)

	rec.err = errors.New("db down")
	err = h.Handle(context.Background(), amqp.Delivery{Body: []byte(`{}`)})
	assert.Error(t, err)
	assert.False(t, isPoison(err))
}

func TestRouterAckNack(t *testing.T) {
	acker := &fakeAcker{}
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 3)}
	rec := &fakeRecorder{}

	r := NewRouter(ch, WithPrefetch(5), WithTimeout(time.Second))
	r.Register(QueueName, HandlerFunc(func(ctx context.Context, d amqp.Delivery) error {
		if string(d.Body) == "fail" {
			return errors.New("transient")
		}
		return NewOrderIntentHandler(rec).Handle(ctx, d)
	}))
	require.NoError(t, r.Start())
	assert.Equal(t, 5, ch.prefetch)

	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte(`{"orderId":"a"}`)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte(`not json`)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Body: []byte(`fail`)}
	close(ch.deliveries)
	r.Wait()

	assert.Equal(t, []ackRecord{
		{tag: 1, ack: true},
		{tag: 2, requeue: false},
		{tag: 3, requeue: true},
	}, acker.acks)
}
