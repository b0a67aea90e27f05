package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/graby/internal/app/model"
)

// ClickPublisher publishes click logs to NATS JetStream
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click log publisher
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Log publishes the click log to the stream. The log id doubles as the
// JetStream message id so a retried publish is stored once.
func (p *ClickPublisher) Log(ctx context.Context, log *model.ClickLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode click log: %w", err)
	}

	if _, err := p.js.Publish(model.ClickStreamSubject, data, nats.Context(ctx), nats.MsgId(log.ID)); err != nil {
		return fmt.Errorf("publish click log: %w", err)
	}
	return nil
}
