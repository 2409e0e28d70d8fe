// Package scenario runs declarative emitter scenarios loaded from YAML or
// TOML files and checks their outcome against expectations.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/eventmix/internal/event"
	"github.com/dshills/eventmix/internal/event/topic"
)

// DefaultScriptTimeout bounds each Lua listener call.
const DefaultScriptTimeout = time.Second

// Format is a scenario file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Scenario is a named set of listeners and the steps exercising them.
type Scenario struct {
	Name          string                 `yaml:"name" toml:"name" json:"name"`
	Description   string                 `yaml:"description" toml:"description" json:"description,omitempty"`
	ScriptTimeout string                 `yaml:"script_timeout" toml:"script_timeout" json:"script_timeout,omitempty"`
	Listeners     map[string]ListenerDef `yaml:"listeners" toml:"listeners" json:"listeners"`
	Steps         []Step                 `yaml:"steps" toml:"steps" json:"steps"`

	timeout time.Duration
}

// ListenerDef describes the behavior of a named listener.
type ListenerDef struct {
	// Return is the fixed return value.
	Return any `yaml:"return" toml:"return" json:"return,omitempty"`

	// Stop is "", "propagation" or "immediate".
	Stop string `yaml:"stop" toml:"stop" json:"stop,omitempty"`

	// Script is a Lua body; its result replaces Return.
	Script string `yaml:"script" toml:"script" json:"script,omitempty"`

	// Fail makes the listener return an error with this message.
	Fail string `yaml:"fail" toml:"fail" json:"fail,omitempty"`

	stop event.StopLevel
}

// Step is a single action. Exactly one of On, Once, No, Trigger and
// Publish is set.
type Step struct {
	On      string `yaml:"on" toml:"on" json:"on,omitempty"`
	Once    string `yaml:"once" toml:"once" json:"once,omitempty"`
	No      string `yaml:"no" toml:"no" json:"no,omitempty"`
	Trigger string `yaml:"trigger" toml:"trigger" json:"trigger,omitempty"`
	Publish string `yaml:"publish" toml:"publish" json:"publish,omitempty"`

	// Listener names the listener for on, once and no. An empty
	// listener on a no step removes every listener of the topic.
	Listener string `yaml:"listener" toml:"listener" json:"listener,omitempty"`

	Properties map[string]any `yaml:"properties" toml:"properties" json:"properties,omitempty"`
	Expect     *Expect        `yaml:"expect" toml:"expect" json:"expect,omitempty"`
}

// Action names the step kind.
type Action string

const (
	ActionOn      Action = "on"
	ActionOnce    Action = "once"
	ActionNo      Action = "no"
	ActionTrigger Action = "trigger"
	ActionPublish Action = "publish"
)

// Action returns the step kind and its topic. It returns an empty action
// when no kind or more than one is set.
func (s Step) Action() (Action, topic.Topic) {
	var (
		action Action
		name   string
		n      int
	)
	for _, c := range []struct {
		a Action
		v string
	}{
		{ActionOn, s.On},
		{ActionOnce, s.Once},
		{ActionNo, s.No},
		{ActionTrigger, s.Trigger},
		{ActionPublish, s.Publish},
	} {
		if c.v != "" {
			action, name = c.a, c.v
			n++
		}
	}
	if n != 1 {
		return "", ""
	}
	return action, topic.FromString(name)
}

// Expect describes the expected outcome of a trigger or publish step.
// Unset fields are not checked.
type Expect struct {
	// Calls lists invoked listeners in order. An entry of the form
	// "name@type" also checks the current type of the call.
	Calls []string `yaml:"calls" toml:"calls" json:"calls,omitempty"`

	ReturnValues []any  `yaml:"return_values" toml:"return_values" json:"return_values,omitempty"`
	ReturnValue  any    `yaml:"return_value" toml:"return_value" json:"return_value,omitempty"`
	Stopped      string `yaml:"stopped" toml:"stopped" json:"stopped,omitempty"`

	// Error is a substring of the expected error; "" expects success.
	Error string `yaml:"error" toml:"error" json:"error,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	sc, err := Parse(path, data, format)
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes data in the given format, applies defaults and validates
// the result. source names the data in errors.
func Parse(source string, data []byte, format Format) (*Scenario, error) {
	sc := &Scenario{}

	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(sc)
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(sc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}

	sc.ApplyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// ApplyDefaults fills unset optional fields.
func (sc *Scenario) ApplyDefaults() {
	if sc.ScriptTimeout == "" {
		sc.ScriptTimeout = DefaultScriptTimeout.String()
	}
	if sc.Listeners == nil {
		sc.Listeners = make(map[string]ListenerDef)
	}
}

// Validate checks listener definitions and step references.
func (sc *Scenario) Validate() error {
	d, err := time.ParseDuration(sc.ScriptTimeout)
	if err != nil || d < 0 {
		return &ValidationError{Field: "script_timeout", Err: fmt.Errorf("invalid duration %q", sc.ScriptTimeout)}
	}
	sc.timeout = d

	for _, name := range sc.ListenerNames() {
		def := sc.Listeners[name]
		field := "listeners." + name

		level, err := event.ParseStopLevel(def.Stop)
		if err != nil {
			return &ValidationError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidListener, err)}
		}
		def.stop = level

		if def.Script != "" && def.Return != nil {
			return &ValidationError{Field: field, Err: fmt.Errorf("%w: script and return are exclusive", ErrInvalidListener)}
		}
		sc.Listeners[name] = def
	}

	if len(sc.Steps) == 0 {
		return ErrNoSteps
	}

	for i, step := range sc.Steps {
		field := fmt.Sprintf("steps[%d]", i)

		action, name := step.Action()
		if action == "" {
			return &ValidationError{Field: field, Err: fmt.Errorf("%w: exactly one of on, once, no, trigger, publish is required", ErrInvalidStep)}
		}

		switch action {
		case ActionOn, ActionOnce:
			if step.Listener == "" {
				return &ValidationError{Field: field, Err: fmt.Errorf("%w: %s needs a listener", ErrInvalidStep, action)}
			}
		case ActionPublish:
			if !name.IsValid() {
				return &ValidationError{Field: field, Err: fmt.Errorf("%w: invalid publish topic %q", ErrInvalidStep, name)}
			}
		}

		if step.Listener != "" {
			if _, ok := sc.Listeners[step.Listener]; !ok {
				return &ValidationError{Field: field, Err: fmt.Errorf("%w %q", ErrUnknownListener, step.Listener)}
			}
		}

		if step.Expect != nil {
			if action != ActionTrigger && action != ActionPublish {
				return &ValidationError{Field: field, Err: fmt.Errorf("%w: expect is only valid on trigger and publish", ErrInvalidStep)}
			}
			if _, err := event.ParseStopLevel(step.Expect.Stopped); err != nil {
				return &ValidationError{Field: field + ".expect", Err: err}
			}
		}
	}
	return nil
}

// ListenerNames returns the defined listener names, sorted.
func (sc *Scenario) ListenerNames() []string {
	names := make([]string, 0, len(sc.Listeners))
	for name := range sc.Listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
