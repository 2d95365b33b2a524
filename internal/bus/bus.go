package bus

import (
	"context"
	"sync"
)

// Message is a single delivery on a topic. Properties carries
// transport-level metadata such as the caller-assigned request id
// used for response correlation (§4.5.5).
type Message struct {
	Value      interface{}
	Properties map[string]string
}

// Handler processes one delivered message. A non-nil error signals a
// transport-retryable failure (§7); the caller is responsible for
// turning that into at-least-once redelivery.
type Handler func(ctx context.Context, msg Message) error

// Consumer subscribes a Handler to a topic.
type Consumer interface {
	Subscribe(topic string, handler Handler) error
}

// Producer publishes a message onto a topic.
type Producer interface {
	Send(ctx context.Context, topic string, value interface{}, properties map[string]string) error
}

// Bus is a Consumer and Producer pair. The real deployment target is
// an external broker (§1); InProcess below is a minimal channel-free
// fan-out implementation sufficient for wiring processors within one
// process (the `serve all` entrypoint) and for tests.
type Bus interface {
	Consumer
	Producer
}

// InProcess is a synchronous, in-memory Bus: Send invokes every
// subscribed handler on the topic inline, in subscription order.
// It has no queueing and no redelivery - those are the external
// bus's job - so it is only a stand-in for local wiring, never a
// substitute for the real transport.
type InProcess struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewInProcess creates an empty in-process bus.
func NewInProcess() *InProcess {
	return &InProcess{handlers: make(map[string][]Handler)}
}

// Subscribe registers handler to be invoked for every message sent to topic.
func (b *InProcess) Subscribe(topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Send dispatches value to the handlers subscribed to topic, in
// subscription order. It stops at the first handler that returns an
// error and returns that error; later handlers are not invoked.
func (b *InProcess) Send(ctx context.Context, topic string, value interface{}, properties map[string]string) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	msg := Message{Value: value, Properties: properties}
	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
