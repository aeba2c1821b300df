// Package noop logs operator notifications instead of delivering them.
package noop

import (
	"context"

	"github.com/sirupsen/logrus"

	"payops/internal/domain"
	"payops/internal/port"
)

type noopNotifier struct {
	log logrus.FieldLogger
}

// NewNoopNotifier creates a Notifier that writes each notification to the log.
func NewNoopNotifier(log logrus.FieldLogger) port.Notifier {
	return &noopNotifier{log: log}
}

func (n *noopNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.log.WithFields(logrus.Fields{
		"title":   msg.Title,
		"variant": msg.Variant,
	}).Info("notify: " + msg.Description)
	return nil
}
