// Package bridge forwards messages published on an EventBus into an
// event emitter, so bus publishers reach hierarchical listeners.
package bridge

import (
	"errors"
	"sort"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/sirupsen/logrus"

	"github.com/dshills/eventmix/internal/event"
	"github.com/dshills/eventmix/internal/event/topic"
)

// ErrClosed is returned when forwarding on a closed Forwarder.
var ErrClosed = errors.New("forwarder is closed")

// ErrInvalidTopic is returned for empty or malformed topics.
var ErrInvalidTopic = errors.New("invalid topic")

// ErrorHandler receives trigger errors raised by forwarded messages.
type ErrorHandler func(name topic.Topic, err error)

// Forwarder subscribes to bus topics and triggers each published message
// on a target in the publishing goroutine. Publishers must pass a single
// map[string]any argument, which becomes the event properties:
//
//	bus.Publish("user:login", map[string]any{"user": "ann"})
//
// EventBus holds its lock while running handlers, so listeners reached
// through a Forwarder must not publish on or subscribe to the same bus.
type Forwarder struct {
	bus    EventBus.Bus
	target event.Triggerer

	logger  logrus.FieldLogger
	onError ErrorHandler
	prefix  topic.Topic

	mu       sync.Mutex
	handlers map[topic.Topic]func(map[string]any)
	closed   bool
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the forwarder logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithErrorHandler sets the callback for trigger errors. The default logs
// them at error level.
func WithErrorHandler(h ErrorHandler) Option {
	return func(f *Forwarder) {
		if h != nil {
			f.onError = h
		}
	}
}

// WithPrefix triggers every forwarded message under prefix, so bus topic
// "login" arrives as "<prefix>:login".
func WithPrefix(prefix topic.Topic) Option {
	return func(f *Forwarder) {
		f.prefix = prefix
	}
}

// NewForwarder creates a Forwarder from bus to target. No topics are
// forwarded until Forward is called.
func NewForwarder(bus EventBus.Bus, target event.Triggerer, opts ...Option) *Forwarder {
	f := &Forwarder{
		bus:      bus,
		target:   target,
		logger:   logrus.StandardLogger(),
		handlers: make(map[topic.Topic]func(map[string]any)),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.onError == nil {
		f.onError = func(name topic.Topic, err error) {
			f.logger.WithField("event", name).WithError(err).Error("Forwarded event failed")
		}
	}
	return f
}

// Forward subscribes to each topic. Topics already forwarded are skipped.
func (f *Forwarder) Forward(topics ...topic.Topic) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	for _, name := range topics {
		if !name.IsValid() {
			return ErrInvalidTopic
		}
		if _, ok := f.handlers[name]; ok {
			continue
		}

		handler := f.handler(name)
		if err := f.bus.Subscribe(name.String(), handler); err != nil {
			return err
		}
		f.handlers[name] = handler

		f.logger.WithField("event", name).Debug("Forwarding bus topic")
	}
	return nil
}

func (f *Forwarder) handler(name topic.Topic) func(map[string]any) {
	dest := f.prefix.Child(name.String())

	return func(props map[string]any) {
		var opts []event.EventOption
		if props != nil {
			opts = append(opts, event.WithProperties(props))
		}
		if _, err := f.target.Trigger(dest, opts...); err != nil {
			f.onError(dest, err)
		}
	}
}

// Stop unsubscribes from name. Stopping a topic that is not forwarded is
// a no-op.
func (f *Forwarder) Stop(name topic.Topic) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	handler, ok := f.handlers[name]
	if !ok {
		return nil
	}
	delete(f.handlers, name)

	f.logger.WithField("event", name).Debug("Stopped forwarding bus topic")
	return f.bus.Unsubscribe(name.String(), handler)
}

// Topics returns the forwarded bus topics, sorted.
func (f *Forwarder) Topics() []topic.Topic {
	f.mu.Lock()
	defer f.mu.Unlock()

	topics := make([]topic.Topic, 0, len(f.handlers))
	for name := range f.handlers {
		topics = append(topics, name)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
	return topics
}

// Close unsubscribes from every topic. Further Forward calls fail with
// ErrClosed.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true

	var errs []error
	for name, handler := range f.handlers {
		if err := f.bus.Unsubscribe(name.String(), handler); err != nil {
			errs = append(errs, err)
		}
	}
	f.handlers = make(map[topic.Topic]func(map[string]any))
	f.mu.Unlock()

	return errors.Join(errs...)
}
