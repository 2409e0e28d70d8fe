// Package event provides a synchronous, in-process event emitter that any
// host type can embed to gain publish/subscribe semantics over
// hierarchical colon-delimited topics.
//
// # Composition
//
// Embed an Emitter and hand it the host so listeners can reach it through
// Event.Target:
//
//	type Widget struct {
//	    event.Emitter
//	    Name string
//	}
//
//	w := &Widget{Name: "button"}
//	w.Init(w, event.WithLogger(logger))
//
// Types that only need the capability should accept an Evented.
//
// # Subscribing
//
// Listeners are matched for removal by identity, so they are wrapped in a
// *Listener:
//
//	l := event.NewListener(func(e *event.Event) (any, error) {
//	    return e.Target.(*Widget).Name, nil
//	})
//	w.On("click", l)       // every time
//	w.Once("close", l)     // first time only
//	w.No("click", l)       // remove l
//	w.No("click", nil)     // remove every listener of "click"
//
// The most recently registered listener of a topic fires first.
//
// # Bubbling
//
// Triggering "a:b:c" runs the listeners of "a:b:c", then "a:b", then "a".
// At each level Event.CurrentType is the level's topic and Event.TypeStack
// holds the segments stripped off to reach it:
//
//	a:b:c   TypeStack []
//	a:b     TypeStack ["c"]
//	a       TypeStack ["b" "c"]
//
// StopPropagation ends the dispatch after the current level;
// StopImmediatePropagation ends it after the current listener.
//
// # Results
//
// Every non-nil value returned by a listener is appended to
// Event.ReturnValues and becomes Event.ReturnValue. A listener error ends
// the dispatch and is returned from Trigger unchanged; panics are not
// recovered.
//
// # Thread Safety
//
// Registration and dispatch may be called from several goroutines. The
// registry is locked only while it is read or changed, never while a
// listener runs, and each level is dispatched from a snapshot. Listeners
// must manage their own thread safety.
package event
