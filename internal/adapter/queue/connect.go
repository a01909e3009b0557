package queue

import (
	"context"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"

	"github.com/aq2208/gorder-checkout/internal/logging"
)

// Dial connects to RabbitMQ, retrying with exponential backoff while the
// broker is still starting up.
func Dial(ctx context.Context, url string, attempts uint64) (*amqp.Connection, error) {
	var conn *amqp.Connection
	b := retry.WithMaxRetries(attempts, retry.NewExponential(500*time.Millisecond))
	b = retry.WithCappedDuration(5*time.Second, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		c, err := amqp.Dial(url)
		if err != nil {
			logging.FromCtx(ctx).Warn("rabbitmq not reachable, retrying", "err", err)
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	return conn, nil
}
