package scenario

import "github.com/dshills/eventmix/internal/event"

// Host is the event target scenarios run against.
type Host struct {
	event.Emitter

	Name string
}

// NewHost creates a host whose events carry it as Target.
func NewHost(name string, opts ...event.Option) *Host {
	h := &Host{Name: name}
	h.Init(h, opts...)
	return h
}
