// Package events publishes booking lifecycle events to a message broker.
package events

import (
	"context"
	"time"
)

// Routing keys for booking events.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	BookingDeleted   = "booking.deleted"
)

// BookingMessage is the payload of every booking event.
type BookingMessage struct {
	BookingID     int64     `json:"booking_id"`
	UserID        int64     `json:"user_id"`
	RouteID       int64     `json:"route_id"`
	Seats         int       `json:"seats"`
	TotalPrice    float64   `json:"total_price"`
	BookingStatus string    `json:"booking_status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers messages under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, message any) error
	Close() error
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }
