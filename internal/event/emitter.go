package event

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/dshills/eventmix/internal/event/topic"
)

// Emitter gives a host publish/subscribe semantics over hierarchical
// topics. Embed it in a host type and call Init with the host, or use New.
// The zero value is ready to use; its events carry the Emitter itself as
// Target.
//
// Listeners are invoked synchronously in the goroutine calling Trigger.
// The registry lock is never held while a listener runs, so listeners may
// subscribe, unsubscribe and trigger re-entrantly. An Emitter must not be
// copied after first use.
type Emitter struct {
	host       any
	config     emitterConfig
	configured bool

	initOnce sync.Once
	registry *Registry

	triggers    atomic.Uint64
	invocations atomic.Uint64
	failures    atomic.Uint64
	added       atomic.Uint64
	removed     atomic.Uint64
}

// New creates a standalone emitter.
func New(opts ...Option) *Emitter {
	return new(Emitter).Init(nil, opts...)
}

// Init sets the host delivered as Event.Target and applies options.
// It must be called before the emitter is shared.
func (em *Emitter) Init(host any, opts ...Option) *Emitter {
	em.host = host
	em.config = defaultEmitterConfig()
	for _, opt := range opts {
		opt(&em.config)
	}
	em.configured = true
	return em
}

// init lazily creates the registry.
func (em *Emitter) init() *Registry {
	em.initOnce.Do(func() {
		if !em.configured {
			em.config = defaultEmitterConfig()
			em.configured = true
		}
		em.registry = NewRegistry()
	})
	return em.registry
}

func (em *Emitter) target() any {
	if em.host != nil {
		return em.host
	}
	return em
}

func (em *Emitter) logger() logrus.FieldLogger {
	em.init()
	return em.config.logger
}

// On registers l under name. Chainable.
func (em *Emitter) On(name topic.Topic, l *Listener) *Emitter {
	em.AddListener(name, l)
	return em
}

// OnFunc registers fn under name and returns its Listener for removal.
func (em *Emitter) OnFunc(name topic.Topic, fn Callback) *Listener {
	l := NewListener(fn)
	em.AddListener(name, l)
	return l
}

// Once registers l under name for a single invocation. When the listener
// first fires it removes every registration of l under name, then runs.
// Removing l with RemoveListener before it fires cancels it.
func (em *Emitter) Once(name topic.Topic, l *Listener) *Emitter {
	if l == nil || l.fn == nil {
		em.logger().WithField("event", name).Warn("Ignoring nil one-shot listener")
		return em
	}

	d := &Descriptor{
		Type:     name,
		Callback: l,
	}
	d.Handler = func(e *Event) (any, error) {
		em.RemoveListener(name, l)
		return l.Call(e)
	}
	em.add(d)
	return em
}

// OnceFunc registers fn under name for a single invocation and returns its
// Listener for removal.
func (em *Emitter) OnceFunc(name topic.Topic, fn Callback) *Listener {
	l := NewListener(fn)
	em.Once(name, l)
	return l
}

// No removes l from name. When l is nil or has no callback, every
// listener of name is removed instead. Chainable.
func (em *Emitter) No(name topic.Topic, l *Listener) *Emitter {
	if l != nil && l.fn != nil {
		em.RemoveListener(name, l)
	} else {
		em.RemoveListeners(name)
	}
	return em
}

// AddListener registers l under name ahead of existing listeners and
// returns the new descriptor. A nil listener is ignored and yields nil.
func (em *Emitter) AddListener(name topic.Topic, l *Listener) *Descriptor {
	if l == nil || l.fn == nil {
		em.logger().WithField("event", name).Warn("Ignoring nil listener")
		return nil
	}

	d := &Descriptor{
		Type:     name,
		Callback: l,
		Handler:  l.fn,
	}
	em.add(d)
	return d
}

func (em *Emitter) add(d *Descriptor) {
	em.init().Prepend(d)
	em.added.Add(1)
	em.config.logger.WithFields(logrus.Fields{
		"event":    d.Type,
		"listener": d.Callback.ID(),
	}).Debug("Added event listener")
}

// RemoveListener removes every registration of l under name. It returns
// false only when name has no listeners at all; a list that exists but
// holds no registration of l still yields true.
func (em *Emitter) RemoveListener(name topic.Topic, l *Listener) bool {
	removed, existed := em.init().Remove(name, l)
	if !existed {
		return false
	}

	em.removed.Add(uint64(removed))
	if removed > 0 {
		em.config.logger.WithFields(logrus.Fields{
			"event":    name,
			"listener": l.ID(),
			"count":    removed,
		}).Debug("Removed event listener")
	}
	return true
}

// RemoveListeners removes every listener registered under name.
func (em *Emitter) RemoveListeners(name topic.Topic) {
	n := em.init().RemoveAll(name)
	if n == 0 {
		return
	}

	em.removed.Add(uint64(n))
	em.config.logger.WithFields(logrus.Fields{
		"event": name,
		"count": n,
	}).Debug("Removed event listeners")
}

// RemoveAllListeners removes every listener of every topic.
func (em *Emitter) RemoveAllListeners() {
	n := em.init().Clear()
	em.removed.Add(uint64(n))
}

// HasListeners reports whether name has registered listeners. Only the
// exact topic is checked, not its prefixes.
func (em *Emitter) HasListeners(name topic.Topic) bool {
	return em.init().Has(name)
}

// ListenerCount returns the number of registrations under name.
func (em *Emitter) ListenerCount(name topic.Topic) int {
	return em.init().Count(name)
}

// EventNames returns the topics that have listeners, sorted.
func (em *Emitter) EventNames() []topic.Topic {
	return em.init().Names()
}

// Trigger dispatches an event for name. Listeners on the full topic run
// first, then listeners on each shorter prefix, down to the first
// segment. Within a level the most recently registered listener runs
// first.
//
// Each level works on a snapshot of its listeners taken when the level
// is reached, so registrations changed by a listener only affect later
// dispatches.
//
// A listener error stops the dispatch; the partially filled event is
// returned together with the error.
func (em *Emitter) Trigger(name topic.Topic, opts ...EventOption) (*Event, error) {
	reg := em.init()
	start := timeNow()

	all := make([]EventOption, 0, len(opts)+1)
	all = append(all, WithTarget(em.target()))
	all = append(all, opts...)
	e := NewEvent(name, all...)

	em.triggers.Add(1)
	log := em.config.logger.WithFields(logrus.Fields{
		"event": name,
		"id":    e.ID,
	})
	log.Trace("Dispatching event")

	invoked := 0
	for _, level := range name.Levels() {
		listeners := reg.Snapshot(level.Key)
		if len(listeners) == 0 {
			continue
		}

		e.CurrentType = level.Key
		e.TypeStack = level.Rest

		for _, d := range listeners {
			ret, err := d.Handler(e)
			invoked++
			em.invocations.Add(1)
			if err != nil {
				em.failures.Add(1)
				log.WithField("level", level.Key).WithError(err).Debug("Listener failed")
				em.config.observer.ListenerFailed(e, err)
				return e, err
			}

			e.collect(ret)

			if e.IsImmediatePropagationStopped() {
				break
			}
		}

		if e.IsPropagationStopped() {
			log.WithField("level", level.Key).Trace("Stop propagation")
			break
		}
	}

	em.config.observer.Triggered(e, invoked, timeNow().Sub(start))
	return e, nil
}

// Stats returns current emitter statistics.
func (em *Emitter) Stats() Stats {
	return Stats{
		Triggers:         em.triggers.Load(),
		Invocations:      em.invocations.Load(),
		Failures:         em.failures.Load(),
		ListenersAdded:   em.added.Load(),
		ListenersRemoved: em.removed.Load(),
		Registered:       em.init().Len(),
	}
}
