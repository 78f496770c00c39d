// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer is the outbound email port of the service.

Domain services depend on [Dispatcher] only. Two adapters exist:

  - [LogDispatcher]: writes the message to the structured log (development).
  - [QueueDispatcher]: publishes the message to a RabbitMQ queue drained by a
    separate delivery worker.

Delivery is never retried here. A caller that fails to hand a message off logs
the error and carries on; the user can always ask for a fresh code.
*/
package mailer

import (
	"context"
	"log/slog"
)

// Message is a single rendered email.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Dispatcher hands a rendered message to the delivery transport.
type Dispatcher interface {
	Send(context context.Context, message Message) error
}

// LogDispatcher logs every message instead of delivering it.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a new LogDispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Send implements [Dispatcher].
func (dispatcher *LogDispatcher) Send(context context.Context, message Message) error {
	dispatcher.logger.InfoContext(context, "mail_dispatched",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.Int("html_bytes", len(message.HTML)),
	)
	return nil
}
