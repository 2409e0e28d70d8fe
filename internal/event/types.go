package event

import "github.com/dshills/eventmix/internal/event/topic"

// Evented is the capability set a host gains by embedding an Emitter.
// Code that only needs to subscribe or trigger should accept an Evented
// rather than a concrete host type.
type Evented interface {
	On(name topic.Topic, l *Listener) *Emitter
	Once(name topic.Topic, l *Listener) *Emitter
	No(name topic.Topic, l *Listener) *Emitter
	Trigger(name topic.Topic, opts ...EventOption) (*Event, error)
	AddListener(name topic.Topic, l *Listener) *Descriptor
	RemoveListener(name topic.Topic, l *Listener) bool
	RemoveListeners(name topic.Topic)
}

// Triggerer is implemented by anything that can dispatch events.
type Triggerer interface {
	Trigger(name topic.Topic, opts ...EventOption) (*Event, error)
}

var _ Evented = (*Emitter)(nil)
