package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/eventmix/internal/event/topic"
)

// StopLevel is the propagation state of an event.
type StopLevel int

const (
	// StopNone means the event is still propagating.
	StopNone StopLevel = iota

	// StopPropagation halts dispatch to less specific levels once the
	// current level has finished.
	StopPropagation

	// StopImmediate halts dispatch entirely, including the remaining
	// listeners of the current level.
	StopImmediate
)

// String returns a human-readable stop level name.
func (l StopLevel) String() string {
	switch l {
	case StopNone:
		return "none"
	case StopPropagation:
		return "propagation"
	case StopImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// ParseStopLevel parses a stop level name as produced by String.
// The empty string parses as StopNone.
func ParseStopLevel(s string) (StopLevel, error) {
	switch s {
	case "", "none":
		return StopNone, nil
	case "propagation":
		return StopPropagation, nil
	case "immediate":
		return StopImmediate, nil
	default:
		return StopNone, fmt.Errorf("%w: %q", ErrInvalidStopLevel, s)
	}
}

// Property keys recognised by WithProperties for callers that still pass
// stop requests as payload flags.
const (
	PropStopPropagation          = "stopPropagation"
	PropStopImmediatePropagation = "stopImmediatePropagation"
)

// Event describes one Trigger call. It is handed to every listener invoked
// for that call and returned to the caller with the aggregated results.
type Event struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Type is the full topic as originally triggered.
	Type topic.Topic

	// CurrentType is the prefix level currently being dispatched.
	CurrentType topic.Topic

	// TypeStack holds the segments stripped off Type to reach CurrentType.
	TypeStack []string

	// TimeStamp is when the event was created.
	TimeStamp time.Time

	// Target is the host the event is dispatched on.
	Target any

	// ReturnValue is the last non-nil value returned by a listener.
	ReturnValue any

	// ReturnValues holds every non-nil listener result in invocation order.
	ReturnValues []any

	// Properties is the free-form payload supplied by the trigger call.
	Properties map[string]any

	stopped StopLevel
}

// EventOption configures an Event at construction.
type EventOption func(*eventConfig)

type eventConfig struct {
	stop   StopLevel
	target any
	props  map[string]any
}

// WithInitialStop constructs the event already stopped at the given level.
func WithInitialStop(level StopLevel) EventOption {
	return func(c *eventConfig) {
		if level > c.stop {
			c.stop = level
		}
	}
}

// WithProperty adds a single payload property.
func WithProperty(key string, value any) EventOption {
	return func(c *eventConfig) {
		if c.props == nil {
			c.props = make(map[string]any)
		}
		c.props[key] = value
	}
}

// WithProperties merges a payload map into the event. Later options
// overwrite earlier keys. A bool true under PropStopPropagation or
// PropStopImmediatePropagation also sets the initial stop level; other
// values such as 1 or "1" are kept as payload only. Prefer
// WithInitialStop.
func WithProperties(props map[string]any) EventOption {
	return func(c *eventConfig) {
		if len(props) == 0 {
			return
		}
		if c.props == nil {
			c.props = make(map[string]any, len(props))
		}
		for k, v := range props {
			c.props[k] = v
		}
		if b, ok := props[PropStopPropagation].(bool); ok && b && c.stop < StopPropagation {
			c.stop = StopPropagation
		}
		if b, ok := props[PropStopImmediatePropagation].(bool); ok && b {
			c.stop = StopImmediate
		}
	}
}

// WithTarget sets the host the event is dispatched on.
func WithTarget(target any) EventOption {
	return func(c *eventConfig) {
		c.target = target
	}
}

// NewEvent creates an event for the given topic.
func NewEvent(name topic.Topic, opts ...EventOption) *Event {
	var c eventConfig
	for _, opt := range opts {
		opt(&c)
	}

	e := &Event{
		ID:           uuid.NewString(),
		Type:         name,
		CurrentType:  name,
		TypeStack:    []string{},
		TimeStamp:    timeNow(),
		Target:       c.target,
		ReturnValues: []any{},
		Properties:   c.props,
	}

	// The stop request is applied before the payload is visible to anyone.
	switch c.stop {
	case StopPropagation:
		e.StopPropagation()
	case StopImmediate:
		e.StopImmediatePropagation()
	}

	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	return e
}

// timeNow is replaceable in tests.
var timeNow = time.Now

// StopPropagation prevents dispatch to less specific levels. Listeners
// remaining at the current level still run.
func (e *Event) StopPropagation() {
	if e.stopped < StopPropagation {
		e.stopped = StopPropagation
	}
}

// StopImmediatePropagation prevents any further listener from running.
func (e *Event) StopImmediatePropagation() {
	e.stopped = StopImmediate
}

// IsPropagationStopped reports whether either stop was requested.
func (e *Event) IsPropagationStopped() bool {
	return e.stopped >= StopPropagation
}

// IsImmediatePropagationStopped reports whether an immediate stop was requested.
func (e *Event) IsImmediatePropagationStopped() bool {
	return e.stopped >= StopImmediate
}

// Stopped returns the current stop level.
func (e *Event) Stopped() StopLevel {
	return e.stopped
}

// Get returns a payload property.
func (e *Event) Get(key string) (any, bool) {
	v, ok := e.Properties[key]
	return v, ok
}

// Has reports whether a payload property is present.
func (e *Event) Has(key string) bool {
	_, ok := e.Properties[key]
	return ok
}

// Set stores a payload property. Listeners use it to pass data to
// listeners at less specific levels.
func (e *Event) Set(key string, value any) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	e.Properties[key] = value
}

// String returns a short description of the event.
func (e *Event) String() string {
	return fmt.Sprintf("[Event type=%s currentType=%s stopped=%s]", e.Type, e.CurrentType, e.stopped)
}

// collect records a listener result. Nil results are absent and ignored.
func (e *Event) collect(ret any) {
	if ret == nil {
		return
	}
	e.ReturnValues = append(e.ReturnValues, ret)
	e.ReturnValue = ret
}
