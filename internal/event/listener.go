package event

import (
	"github.com/google/uuid"

	"github.com/dshills/eventmix/internal/event/topic"
)

// Callback processes an event. A non-nil result is collected into the
// event's return values; a non-nil error aborts the dispatch and is
// returned from Trigger unchanged.
type Callback func(e *Event) (any, error)

// Listener gives a Callback an identity. Go functions cannot be compared,
// so subscriptions are matched for removal by *Listener pointer.
type Listener struct {
	id string
	fn Callback
}

// NewListener wraps fn in a new Listener.
func NewListener(fn Callback) *Listener {
	return &Listener{
		id: uuid.NewString(),
		fn: fn,
	}
}

// ListenerFunc wraps a callback that returns no value and cannot fail.
func ListenerFunc(fn func(e *Event)) *Listener {
	return NewListener(func(e *Event) (any, error) {
		fn(e)
		return nil, nil
	})
}

// ID returns the listener identifier used in logs.
func (l *Listener) ID() string {
	return l.id
}

// Call invokes the listener's callback.
func (l *Listener) Call(e *Event) (any, error) {
	return l.fn(e)
}

// Descriptor is one registration of a listener under a topic.
type Descriptor struct {
	// Type is the topic the listener was registered under.
	Type topic.Topic

	// Callback is the identity matched by RemoveListener.
	Callback *Listener

	// Handler is the function actually invoked. It differs from
	// Callback.Call for one-shot registrations.
	Handler Callback
}
