package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maxConnectBackoff = 30 * time.Second

// Connect dials the broker, retrying with exponential backoff until it
// succeeds or ctx is done. Used by the worker, which has nothing to do
// without a broker.
func Connect(ctx context.Context, url, exchange, queue string) (*Client, error) {
	backoff := time.Second
	for {
		client, err := NewClient(url, exchange, queue)
		if err == nil {
			return client, nil
		}
		slog.WarnContext(ctx, "AMQP connect failed, retrying",
			"error", err,
			"backoff", backoff)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect AMQP: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxConnectBackoff {
			backoff = maxConnectBackoff
		}
	}
}
