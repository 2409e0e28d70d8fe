package event

import "time"

// Observer is notified about dispatches. Implementations must be safe for
// concurrent use when the emitter is shared between goroutines.
type Observer interface {
	// Triggered is called when a dispatch finishes without a listener error.
	// invoked is the number of listeners that ran.
	Triggered(e *Event, invoked int, elapsed time.Duration)

	// ListenerFailed is called when a listener error aborts a dispatch.
	ListenerFailed(e *Event, err error)
}

type nopObserver struct{}

func (nopObserver) Triggered(*Event, int, time.Duration) {}
func (nopObserver) ListenerFailed(*Event, error)         {}

// Observers fans notifications out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) Triggered(e *Event, invoked int, elapsed time.Duration) {
	for _, o := range m {
		o.Triggered(e, invoked, elapsed)
	}
}

func (m multiObserver) ListenerFailed(e *Event, err error) {
	for _, o := range m {
		o.ListenerFailed(e, err)
	}
}

// Stats contains emitter statistics.
type Stats struct {
	// Triggers is the total number of Trigger calls.
	Triggers uint64

	// Invocations is the total number of listener invocations.
	Invocations uint64

	// Failures is the number of dispatches aborted by a listener error.
	Failures uint64

	// ListenersAdded is the number of descriptors registered.
	ListenersAdded uint64

	// ListenersRemoved is the number of descriptors removed, including
	// one-shot listeners removing themselves.
	ListenersRemoved uint64

	// Registered is the current number of descriptors.
	Registered int
}
