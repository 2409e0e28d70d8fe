package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/sirupsen/logrus"

	"github.com/dshills/eventmix/internal/bridge"
	"github.com/dshills/eventmix/internal/event"
	"github.com/dshills/eventmix/internal/event/topic"
	"github.com/dshills/eventmix/internal/script"
)

// Runner executes scenarios. A Runner may be reused; every run gets a
// fresh host, script engine and bus.
type Runner struct {
	logger   logrus.FieldLogger
	observer event.Observer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner and the hosts it creates.
func WithLogger(logger logrus.FieldLogger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver attaches an additional observer to every host, e.g. a
// metrics recorder.
func WithObserver(o event.Observer) RunnerOption {
	return func(r *Runner) {
		r.observer = o
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps of sc in order. Expectation mismatches are
// recorded in the report; an error is returned only when the scenario
// cannot be executed.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	sc.ApplyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	log := r.logger.WithField("scenario", sc.Name)
	rec := &recorder{}

	host := NewHost(sc.Name,
		event.WithLogger(log),
		event.WithObserver(event.Observers(rec, r.observer)),
	)

	engine, err := script.NewEngine(script.WithLogger(log), script.WithTimeout(sc.timeout))
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	engine.Bind(host)

	listeners, err := r.buildListeners(sc, engine, rec)
	if err != nil {
		return nil, err
	}

	bus := EventBus.New()
	var publishErr error
	fwd := bridge.NewForwarder(bus, host,
		bridge.WithLogger(log),
		bridge.WithErrorHandler(func(_ topic.Topic, err error) {
			publishErr = err
		}),
	)
	defer fwd.Close()

	report := &Report{Scenario: sc.Name}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		action, name := step.Action()
		res := StepResult{
			Index:    i,
			Action:   action,
			Topic:    name,
			Listener: step.Listener,
		}
		log.WithFields(logrus.Fields{
			"step":   i,
			"action": action,
			"event":  name,
		}).Debug("Running step")

		switch action {
		case ActionOn:
			host.On(name, listeners[step.Listener])
		case ActionOnce:
			host.Once(name, listeners[step.Listener])
		case ActionNo:
			host.No(name, listeners[step.Listener])
		case ActionTrigger:
			rec.reset()
			e, err := host.Trigger(name, event.WithProperties(step.Properties))
			res.fill(rec.calls, e, err)
		case ActionPublish:
			rec.reset()
			publishErr = nil
			if err := fwd.Forward(name); err != nil {
				return report, fmt.Errorf("step %d: %w", i, err)
			}
			props := step.Properties
			if props == nil {
				props = map[string]any{}
			}
			bus.Publish(name.String(), props)
			res.fill(rec.calls, rec.last, publishErr)
		}

		res.check(step.Expect)
		report.Steps = append(report.Steps, res)
	}

	report.Stats = host.Stats()
	log.WithFields(logrus.Fields{
		"steps":    len(report.Steps),
		"failures": len(report.Failures()),
	}).Info("Scenario finished")
	return report, nil
}

func (r *Runner) buildListeners(sc *Scenario, engine *script.Engine, rec *recorder) (map[string]*event.Listener, error) {
	listeners := make(map[string]*event.Listener, len(sc.Listeners))
	for _, name := range sc.ListenerNames() {
		def := sc.Listeners[name]

		var compiled event.Callback
		if def.Script != "" {
			cb, err := engine.Compile(name, def.Script)
			if err != nil {
				return nil, &ValidationError{Field: "listeners." + name, Err: err}
			}
			compiled = cb
		}
		listeners[name] = event.NewListener(listenerCallback(name, def, compiled, rec))
	}
	return listeners, nil
}

func listenerCallback(name string, def ListenerDef, compiled event.Callback, rec *recorder) event.Callback {
	return func(e *event.Event) (any, error) {
		rec.record(name, e)

		ret := def.Return
		if compiled != nil {
			v, err := compiled(e)
			if err != nil {
				return nil, err
			}
			ret = v
		}

		switch def.stop {
		case event.StopPropagation:
			e.StopPropagation()
		case event.StopImmediate:
			e.StopImmediatePropagation()
		}

		if def.Fail != "" {
			return ret, &ListenerError{Listener: name, Message: def.Fail}
		}
		return ret, nil
	}
}

func (res *StepResult) fill(calls []Call, e *event.Event, err error) {
	res.Calls = calls
	if e != nil {
		res.ReturnValues = append([]any{}, e.ReturnValues...)
		res.ReturnValue = e.ReturnValue
		res.Stopped = e.Stopped().String()
	}
	if err != nil {
		res.Error = err.Error()
	}
}

// recorder tracks listener calls and the last finished dispatch of a step.
type recorder struct {
	calls []Call
	last  *event.Event
}

func (rec *recorder) reset() {
	rec.calls = nil
	rec.last = nil
}

func (rec *recorder) record(name string, e *event.Event) {
	rec.calls = append(rec.calls, Call{
		Listener:    name,
		CurrentType: e.CurrentType,
		TypeStack:   append([]string{}, e.TypeStack...),
	})
}

func (rec *recorder) Triggered(e *event.Event, _ int, _ time.Duration) {
	rec.last = e
}

func (rec *recorder) ListenerFailed(e *event.Event, _ error) {
	rec.last = e
}
