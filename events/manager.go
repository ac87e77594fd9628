// Package events publishes locale changes on a gocloud.dev/pubsub topic and
// dispatches received messages to registered handlers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub" // in-memory driver for mem:// topics
)

const EventHeaderName = "resources.event"

// ErrNotRegistered is returned for messages whose event has no handler.
var ErrNotRegistered = errors.New("event not found in registry")

type manager struct {
	url   string
	topic *pubsub.Topic

	mu            sync.RWMutex
	eventRegistry map[string]Event
}

// NewManager opens the topic at topicURL. A blank url yields a manager that
// only dispatches, Emit then fails.
func NewManager(ctx context.Context, topicURL string) (Manager, error) {
	m := &manager{
		url:           topicURL,
		eventRegistry: make(map[string]Event),
	}
	if strings.TrimSpace(topicURL) == "" {
		return m, nil
	}

	topic, err := pubsub.OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, fmt.Errorf("open events topic %q: %w", topicURL, err)
	}
	m.topic = topic
	return m, nil
}

func (m *manager) Add(evt Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventRegistry[evt.Name()] = evt
}

func (m *manager) Get(eventName string) (Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evt, ok := m.eventRegistry[eventName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, eventName)
	}

	return evt, nil
}

// Emit publishes payload as JSON with the event name and trace context in
// the message metadata.
func (m *manager) Emit(ctx context.Context, name string, payload any) error {
	if m.topic == nil {
		return errors.New("events topic is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", name, err)
	}

	metadata := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, metadata)
	maps.Copy(metadata, map[string]string{EventHeaderName: name})

	err = m.topic.Send(ctx, &pubsub.Message{Body: body, Metadata: metadata})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("name", name).Error("Could not emit event")
		return err
	}

	return nil
}

func (m *manager) Handle(ctx context.Context, header map[string]string, payload []byte) error {
	eventName := header[EventHeaderName]
	if eventName == "" {
		util.Log(ctx).Error("Missing event header in message")
		return errors.New("missing event header")
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(header))

	eventHandler, err := m.Get(eventName)
	if err != nil {
		util.Log(ctx).WithError(err).WithField("event", eventName).Error("Event not found in registry")
		return err
	}

	payloadTemplate := eventHandler.PayloadType()
	err = json.Unmarshal(payload, payloadTemplate)
	if err != nil {
		util.Log(ctx).WithError(err).WithField("event", eventName).Error("Failed to unmarshal payload")
		return err
	}

	err = eventHandler.Validate(ctx, payloadTemplate)
	if err != nil {
		util.Log(ctx).WithError(err).WithField("event", eventName).Error("Event payload validation failed")
		return err
	}

	err = eventHandler.Execute(ctx, payloadTemplate)
	if err != nil {
		util.Log(ctx).WithError(err).WithField("event", eventName).Error("Event execution failed")
		return err
	}

	return nil
}

// Receive takes one message from sub and handles it. Handled messages are
// acked, failed ones are nacked when the driver supports it.
func (m *manager) Receive(ctx context.Context, sub *pubsub.Subscription) error {
	msg, err := sub.Receive(ctx)
	if err != nil {
		return err
	}

	err = m.Handle(ctx, msg.Metadata, msg.Body)
	if err != nil {
		if msg.Nackable() {
			msg.Nack()
		}
		return err
	}
	msg.Ack()
	return nil
}

func (m *manager) Close(ctx context.Context) error {
	topic := m.topic
	m.topic = nil
	if topic == nil {
		return nil
	}

	// mem:// topics are process wide and shared by url.
	if strings.HasPrefix(strings.ToLower(m.url), "mem://") {
		return nil
	}

	return topic.Shutdown(ctx)
}
