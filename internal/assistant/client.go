// FILE: internal/assistant/client.go
package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// Checkpoint is consulted after a full round of retries failed. Returning
// nil starts a fresh round; an error gives up.
type Checkpoint interface {
	ContinueWaiting(ctx context.Context, cause error) error
}

// Client wraps a Transport with bounded retries and an operator checkpoint.
// It never reports a transport failure to the caller; only cancellation
// or a declined checkpoint end a call without a reply.
type Client struct {
	transport  Transport
	checkpoint Checkpoint
	maxRetries int
	delay      time.Duration
	log        zerolog.Logger
}

type ClientConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

func NewClient(t Transport, cp Checkpoint, cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Client{
		transport:  t,
		checkpoint: cp,
		maxRetries: cfg.MaxRetries,
		delay:      cfg.RetryDelay,
		log:        log,
	}
}

func (c *Client) Complete(ctx context.Context, model string, messages []core.Message, temperature float32) (string, error) {
	for {
		reply, err := c.round(ctx, model, messages, temperature)
		if err == nil {
			return reply, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		c.log.Warn().Err(err).Int("retries", c.maxRetries).Msg("assistant unreachable, maximum retries reached")
		if c.checkpoint == nil {
			continue
		}
		if cpErr := c.checkpoint.ContinueWaiting(ctx, err); cpErr != nil {
			return "", cpErr
		}
	}
}

// round makes up to maxRetries attempts with exponential backoff.
func (c *Client) round(ctx context.Context, model string, messages []core.Message, temperature float32) (string, error) {
	b := retry.NewExponential(c.delay)
	b = retry.WithCappedDuration(maxRetryDelay, b)
	b = retry.WithMaxRetries(uint64(c.maxRetries-1), b)

	var reply string
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		r, err := c.transport.Complete(ctx, model, messages, temperature)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return err
				}
			}
			if attempt < c.maxRetries {
				c.log.Warn().Err(err).Msgf("error occurred, retrying (%d/%d)", attempt, c.maxRetries)
			}
			return retry.RetryableError(err)
		}
		reply = r
		return nil
	})
	return reply, err
}
