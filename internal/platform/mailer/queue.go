// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/taibuivan/secretbox/pkg/uuid"
)

// Publisher is the subset of [*amqp.Channel] used by [QueueDispatcher].
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueDispatcher publishes JSON-encoded messages to a durable RabbitMQ queue.
type QueueDispatcher struct {
	mu        sync.Mutex
	publisher Publisher
	queue     string
	sender    string
	closers   []func() error
}

// NewQueueDispatcher wraps an already-open publisher.
func NewQueueDispatcher(publisher Publisher, queue, sender string) *QueueDispatcher {
	return &QueueDispatcher{
		publisher: publisher,
		queue:     queue,
		sender:    sender,
	}
}

// DialQueue connects to RabbitMQ, declares the durable queue and returns a
// dispatcher publishing to it.
func DialQueue(url, queue, sender string) (*QueueDispatcher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("mailer: rabbitmq url is required")
	}
	if strings.TrimSpace(queue) == "" {
		return nil, errors.New("mailer: queue name is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mailer: failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("mailer: failed to declare queue: %w", err)
	}

	dispatcher := NewQueueDispatcher(channel, queue, sender)
	dispatcher.closers = []func() error{channel.Close, conn.Close}
	return dispatcher, nil
}

// Send implements [Dispatcher].
func (dispatcher *QueueDispatcher) Send(context context.Context, message Message) error {
	if message.From == "" {
		message.From = dispatcher.sender
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("mailer: failed to encode message: %w", err)
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()

	err = dispatcher.publisher.PublishWithContext(context, "", dispatcher.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.Random(),
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("mailer: failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and connection opened by [DialQueue].
func (dispatcher *QueueDispatcher) Close() error {
	var errs []error
	for _, closeFn := range dispatcher.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
