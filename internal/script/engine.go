package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/eventmix/internal/event"
	"github.com/dshills/eventmix/internal/event/topic"
)

const eventTypeName = "eventmix.event"

// Engine owns a Lua state and the listeners compiled on it.
//
// gopher-lua states are not goroutine-safe. Listeners compiled by an
// Engine must only be triggered from one goroutine at a time. Nested
// triggers from within a script run on the same goroutine and are fine.
type Engine struct {
	L *lua.LState

	logger  logrus.FieldLogger
	timeout time.Duration

	depth  int
	closed bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger that receives print output and script logs.
func WithLogger(logger logrus.FieldLogger) EngineOption {
	return func(en *Engine) {
		if logger != nil {
			en.logger = logger
		}
	}
}

// WithTimeout bounds the run time of each outermost script call.
// Zero disables the limit.
func WithTimeout(d time.Duration) EngineOption {
	return func(en *Engine) {
		en.timeout = d
	}
}

// NewEngine creates a sandboxed engine.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	en := &Engine{
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(en)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	if err := openSafeLibraries(L); err != nil {
		L.Close()
		return nil, fmt.Errorf("open lua libraries: %w", err)
	}
	en.L = L

	en.installSandbox()
	en.registerEventType()
	return en, nil
}

func openSafeLibraries(L *lua.LState) error {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return err
		}
	}
	return nil
}

func (en *Engine) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		en.L.SetGlobal(name, lua.LNil)
	}

	en.L.SetGlobal("print", en.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		en.logger.Info(strings.Join(parts, "\t"))
		return 0
	}))
}

// Compile turns body into a listener callback. name identifies the
// listener in errors. Compilation errors are returned as *ScriptError.
func (en *Engine) Compile(name, body string) (event.Callback, error) {
	if en.closed {
		return nil, ErrEngineClosed
	}

	chunk, err := en.L.LoadString("return function(e)\n" + body + "\nend")
	if err != nil {
		return nil, &ScriptError{Name: name, Err: err}
	}

	if err := en.L.CallByParam(lua.P{Fn: chunk, NRet: 1, Protect: true}); err != nil {
		return nil, &ScriptError{Name: name, Err: err}
	}
	ret := en.L.Get(-1)
	en.L.Pop(1)

	fn, ok := ret.(*lua.LFunction)
	if !ok {
		return nil, &ScriptError{Name: name, Err: ErrNotFunction}
	}

	return func(e *event.Event) (any, error) {
		return en.call(name, fn, e)
	}, nil
}

// MustCompile is like Compile but panics on error.
func (en *Engine) MustCompile(name, body string) event.Callback {
	cb, err := en.Compile(name, body)
	if err != nil {
		panic(err)
	}
	return cb
}

func (en *Engine) call(name string, fn *lua.LFunction, e *event.Event) (any, error) {
	if en.closed {
		return nil, ErrEngineClosed
	}

	en.depth++
	defer func() { en.depth-- }()

	if en.depth == 1 && en.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), en.timeout)
		en.L.SetContext(ctx)
		defer func() {
			en.L.RemoveContext()
			cancel()
		}()
	}

	err := en.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, en.wrapEvent(e))
	if err != nil {
		en.logger.WithFields(logrus.Fields{
			"listener": name,
			"event":    e.Type,
		}).WithError(err).Debug("Script failed")
		return nil, &ScriptError{Name: name, Err: err}
	}

	ret := en.L.Get(-1)
	en.L.Pop(1)
	return toGo(ret), nil
}

// Bind installs a global trigger(name[, props]) function that dispatches
// through t and returns the resulting event's return value.
func (en *Engine) Bind(t event.Triggerer) {
	en.L.SetGlobal("trigger", en.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)

		var opts []event.EventOption
		if tbl, ok := L.Get(2).(*lua.LTable); ok {
			if props, ok := toGo(tbl).(map[string]any); ok {
				opts = append(opts, event.WithProperties(props))
			}
		}

		e, err := t.Trigger(topic.Topic(name), opts...)
		if err != nil {
			L.RaiseError("trigger %s: %s", name, err.Error())
			return 0
		}
		L.Push(toLua(L, e.ReturnValue))
		return 1
	}))
}

// Close releases the Lua state. Callbacks compiled by the engine return
// ErrEngineClosed afterwards.
func (en *Engine) Close() {
	if en.closed {
		return
	}
	en.closed = true
	en.L.Close()
}

func (en *Engine) wrapEvent(e *event.Event) *lua.LUserData {
	ud := en.L.NewUserData()
	ud.Value = e
	en.L.SetMetatable(ud, en.L.GetTypeMetatable(eventTypeName))
	return ud
}

func (en *Engine) registerEventType() {
	mt := en.L.NewTypeMetatable(eventTypeName)
	en.L.SetField(mt, "__index", en.L.SetFuncs(en.L.NewTable(), eventMethods))
	en.L.SetField(mt, "__tostring", en.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkEvent(L).String()))
		return 1
	}))
}

var eventMethods = map[string]lua.LGFunction{
	"type": func(L *lua.LState) int {
		L.Push(lua.LString(checkEvent(L).Type))
		return 1
	},
	"current_type": func(L *lua.LState) int {
		L.Push(lua.LString(checkEvent(L).CurrentType))
		return 1
	},
	"type_stack": func(L *lua.LState) int {
		L.Push(toLua(L, checkEvent(L).TypeStack))
		return 1
	},
	"get": func(L *lua.LState) int {
		e := checkEvent(L)
		v, _ := e.Get(L.CheckString(2))
		L.Push(toLua(L, v))
		return 1
	},
	"set": func(L *lua.LState) int {
		e := checkEvent(L)
		e.Set(L.CheckString(2), toGo(L.Get(3)))
		return 0
	},
	"stop_propagation": func(L *lua.LState) int {
		checkEvent(L).StopPropagation()
		return 0
	},
	"stop_immediate_propagation": func(L *lua.LState) int {
		checkEvent(L).StopImmediatePropagation()
		return 0
	},
	"is_propagation_stopped": func(L *lua.LState) int {
		L.Push(lua.LBool(checkEvent(L).IsPropagationStopped()))
		return 1
	},
	"is_immediate_propagation_stopped": func(L *lua.LState) int {
		L.Push(lua.LBool(checkEvent(L).IsImmediatePropagationStopped()))
		return 1
	},
	"return_values": func(L *lua.LState) int {
		L.Push(toLua(L, checkEvent(L).ReturnValues))
		return 1
	},
}

func checkEvent(L *lua.LState) *event.Event {
	ud := L.CheckUserData(1)
	if e, ok := ud.Value.(*event.Event); ok {
		return e
	}
	L.ArgError(1, "event expected")
	return nil
}
