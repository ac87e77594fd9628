package events

import (
	"context"

	"gocloud.dev/pubsub"
)

// Event represents a notification that can be emitted on the events topic and
// dispatched to a handler registered under its name.
type Event interface {
	// Name is the routing key written to the message header.
	Name() string

	// PayloadType returns a fresh value the message body is decoded into.
	PayloadType() any

	// Validate rejects malformed payloads before Execute runs.
	Validate(ctx context.Context, payload any) error

	// Execute handles a decoded and validated payload.
	Execute(ctx context.Context, payload any) error
}

type Manager interface {
	Add(evt Event)
	Get(name string) (Event, error)
	Emit(ctx context.Context, name string, payload any) error
	Handle(ctx context.Context, header map[string]string, payload []byte) error
	Receive(ctx context.Context, sub *pubsub.Subscription) error
	Close(ctx context.Context) error
}
