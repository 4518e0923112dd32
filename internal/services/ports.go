package services

import (
	"context"
	"time"

	"fintrack/internal/amqp"
)

// Clock supplies "now" so date windows can be computed deterministically.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// EventPublisher receives change notifications after each mutation.
//
//go:generate mockgen -destination=mocks/mock_publisher.go -source=ports.go EventPublisher
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev amqp.TransactionEvent) error
}
