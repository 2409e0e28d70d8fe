package event_test

import (
	"fmt"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/dshills/eventmix/internal/event"
)

// Window is a host type that gains events by embedding an Emitter.
type Window struct {
	event.Emitter
	Title string
}

func NewWindow(title string) *Window {
	logger, _ := test.NewNullLogger()
	w := &Window{Title: title}
	w.Init(w, event.WithLogger(logger))
	return w
}

// Example_basicUsage demonstrates subscribing and triggering on a host.
func Example_basicUsage() {
	w := NewWindow("main")

	w.OnFunc("resize", func(e *event.Event) (any, error) {
		width, _ := e.Get("width")
		fmt.Printf("%s resized to %v\n", e.Target.(*Window).Title, width)
		return nil, nil
	})

	if _, err := w.Trigger("resize", event.WithProperty("width", 800)); err != nil {
		fmt.Printf("Trigger failed: %v\n", err)
	}

	// Output: main resized to 800
}

// Example_bubbling shows listeners on shorter prefixes seeing longer topics.
func Example_bubbling() {
	w := NewWindow("main")

	w.OnFunc("key", func(e *event.Event) (any, error) {
		fmt.Printf("%s at %s, stack %v\n", e.Type, e.CurrentType, e.TypeStack)
		return nil, nil
	})
	w.OnFunc("key:down", func(e *event.Event) (any, error) {
		fmt.Printf("%s at %s, stack %v\n", e.Type, e.CurrentType, e.TypeStack)
		return nil, nil
	})

	_, _ = w.Trigger("key:down:enter")

	// Output:
	// key:down:enter at key:down, stack [enter]
	// key:down:enter at key, stack [down enter]
}

// Example_once shows a one-shot listener.
func Example_once() {
	w := NewWindow("main")
	count := 0
	w.OnceFunc("click", func(*event.Event) (any, error) {
		count++
		return nil, nil
	})

	_, _ = w.Trigger("click")
	_, _ = w.Trigger("click")
	fmt.Println(count, w.HasListeners("click"))

	// Output: 1 false
}

// Example_returnValues shows results aggregated in invocation order.
func Example_returnValues() {
	w := NewWindow("main")
	w.OnFunc("x", func(*event.Event) (any, error) { return 1, nil })
	w.OnFunc("x", func(*event.Event) (any, error) { return 2, nil })

	e, _ := w.Trigger("x")
	fmt.Println(e.ReturnValues, e.ReturnValue)

	// Output: [2 1] 1
}

// Example_stopPropagation shows a specific listener hiding an event from
// general ones.
func Example_stopPropagation() {
	w := NewWindow("main")
	w.OnFunc("form", func(*event.Event) (any, error) {
		fmt.Println("general")
		return nil, nil
	})
	w.OnFunc("form:submit", func(e *event.Event) (any, error) {
		fmt.Println("specific")
		e.StopPropagation()
		return nil, nil
	})

	_, _ = w.Trigger("form:submit")

	// Output: specific
}
