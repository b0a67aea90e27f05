package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/graby/internal/app/model"
	apprepository "github.com/sifan077/graby/internal/app/repository"
	"go.uber.org/zap"
)

const (
	clickFetchBatch   = 10
	clickFetchMaxWait = 5 * time.Second
	clickStoreTimeout = 5 * time.Second
)

// EnsureClickStream creates the click log stream when it does not exist yet.
func EnsureClickStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(model.ClickStreamName); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     model.ClickStreamName,
		Subjects: []string{model.ClickStreamSubject},
		MaxBytes: model.ClickStreamMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// ClickConsumer moves click logs from NATS JetStream into the click log store
type ClickConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.ClickLogRepository
	done   chan struct{}
}

// NewClickConsumer creates a new click log consumer
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.ClickLogRepository) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{js: js, logger: logger, repo: repo, done: make(chan struct{})}
}

// Start begins consuming click logs until ctx is cancelled.
func (c *ClickConsumer) Start(ctx context.Context) error {
	if err := EnsureClickStream(c.js); err != nil {
		return err
	}

	// Create consumer if not exists
	if _, err := c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName, nats.Bind(model.ClickStreamName, model.ClickConsumerName))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

// Done is closed once the consume loop has exited.
func (c *ClickConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *ClickConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer close(c.done)
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.logger.Warn("failed to unsubscribe click consumer", zap.Error(err))
		}
	}()

	for {
		if ctx.Err() != nil {
			c.logger.Info("click consumer stopped")
			return
		}

		msgs, err := sub.Fetch(clickFetchBatch, nats.MaxWait(clickFetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				c.logger.Warn("click consumer subscription closed", zap.Error(err))
				return
			}
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

func (c *ClickConsumer) handle(ctx context.Context, msg *nats.Msg) {
	var log model.ClickLog
	if err := json.Unmarshal(msg.Data, &log); err != nil {
		c.logger.Error("dropping undecodable click log", zap.Error(err))
		_ = msg.Term()
		return
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clickStoreTimeout)
	defer cancel()

	if err := c.repo.Create(storeCtx, &log); err != nil {
		c.logger.Error("failed to store click log",
			zap.String("id", log.ID),
			zap.String("link_id", log.LinkID),
			zap.Error(err))
		_ = msg.Nak()
		return
	}

	c.logger.Debug("click log stored",
		zap.String("id", log.ID),
		zap.String("link_id", log.LinkID),
		zap.String("user_id", log.UserID),
		zap.Time("timestamp", log.Timestamp),
	)

	_ = msg.Ack()
}
