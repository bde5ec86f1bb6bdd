package events

import (
	"context" // Publisher interface

	"github.com/sirupsen/logrus" // Logging library
)

// LogPublisher records events in the application log. It is used when no
// broker is configured.
type LogPublisher struct{}

func (LogPublisher) OrderPlaced(_ context.Context, evt OrderPlaced) error {
	logrus.WithFields(logrus.Fields{
		"order_id": evt.OrderID,              // Order ID
		"user_id":  evt.UserID,               // Buyer
		"total":    evt.Total.StringFixed(2), // Order total
		"items":    len(evt.Items),           // Line count
	}).Info("Order placed")
	return nil
}

func (LogPublisher) Close() error { return nil }
