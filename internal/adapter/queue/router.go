package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aq2208/gorder-checkout/internal/logging"
)

// Channel is the part of *amqp.Channel the Router consumes with.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Router manages multiple consumers (one per registered queue) on a single AMQP channel.
type Router struct {
	ch            Channel
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	log           *slog.Logger
	registrations []registration
	wg            sync.WaitGroup
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

// --- Options ---

type RouterOption func(*Router)

func WithPrefetch(n int) RouterOption          { return func(r *Router) { r.prefetch = n } }
func WithTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }
func WithRequeue(b bool) RouterOption          { return func(r *Router) { r.requeueOnErr = b } }

// NewRouter constructs a Router. Defaults: prefetch=50, timeout=10s, requeueOnErr=true.
func NewRouter(ch Channel, opts ...RouterOption) *Router {
	r := &Router{
		ch:           ch,
		prefetch:     50,
		callTimeout:  10 * time.Second,
		requeueOnErr: true,
		log:          logging.New("rmq-router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a queue with a handler. Call multiple times for multiple queues.
func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "c_" + queueName,
	})
}

// Start begins consuming; non-blocking (spawns one goroutine per queue).
// QoS (prefetch) is set per-channel and applies to all consumers on this channel.
func (r *Router) Start() error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	for _, reg := range r.registrations {
		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}

		r.wg.Add(1)
		go r.consume(reg, deliveries)
	}
	return nil
}

// Wait blocks until every consumer goroutine has stopped, which happens
// when the channel is closed.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) consume(reg registration, msgs <-chan amqp.Delivery) {
	defer r.wg.Done()
	l := r.log.With("queue", reg.queueName, "tag", reg.consumerTag)

	for d := range msgs {
		ctx, cancel := context.WithTimeout(logging.WithCtx(context.Background(), l), r.callTimeout)
		err := reg.handler.Handle(ctx, d)
		cancel()

		switch {
		case err == nil:
			_ = d.Ack(false)
		case isPoison(err):
			l.Error("dropping poison message", "rk", d.RoutingKey, "err", err)
			_ = d.Nack(false, false)
		default:
			l.Error("handler error", "rk", d.RoutingKey, "err", err, "requeue", r.requeueOnErr)
			_ = d.Nack(false, r.requeueOnErr)
		}
	}
	l.Info("consumer stopped")
}
