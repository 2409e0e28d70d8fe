package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/eventmix/internal/event/topic"
)

func TestNewEvent_Defaults(t *testing.T) {
	before := time.Now()
	e := NewEvent(topic.Topic("test:foo"))

	assert.Equal(t, topic.Topic("test:foo"), e.Type)
	assert.Equal(t, topic.Topic("test:foo"), e.CurrentType)
	assert.Empty(t, e.TypeStack)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.TimeStamp.Before(before))
	assert.Equal(t, StopNone, e.Stopped())
	assert.Nil(t, e.ReturnValue)
	assert.NotNil(t, e.ReturnValues)
	assert.Empty(t, e.ReturnValues)
	assert.NotNil(t, e.Properties)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a := NewEvent("x")
	b := NewEvent("x")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewEvent_ReturnValuesNotShared(t *testing.T) {
	a := NewEvent("x")
	b := NewEvent("x")
	a.collect(1)

	assert.Equal(t, []any{1}, a.ReturnValues)
	assert.Empty(t, b.ReturnValues)
}

func TestNewEvent_Properties(t *testing.T) {
	e := NewEvent("test",
		WithProperties(map[string]any{"me": "Avaq", "n": 1}),
		WithProperty("n", 2),
	)

	v, ok := e.Get("me")
	require.True(t, ok)
	assert.Equal(t, "Avaq", v)

	v, _ = e.Get("n")
	assert.Equal(t, 2, v)

	assert.False(t, e.Has("missing"))
	e.Set("missing", true)
	assert.True(t, e.Has("missing"))
}

func TestNewEvent_InitialStop(t *testing.T) {
	tests := []struct {
		name     string
		opts     []EventOption
		expected StopLevel
	}{
		{"none", nil, StopNone},
		{"option propagation", []EventOption{WithInitialStop(StopPropagation)}, StopPropagation},
		{"option immediate", []EventOption{WithInitialStop(StopImmediate)}, StopImmediate},
		{"option never lowers", []EventOption{WithInitialStop(StopImmediate), WithInitialStop(StopPropagation)}, StopImmediate},
		{"property propagation", []EventOption{WithProperties(map[string]any{PropStopPropagation: true})}, StopPropagation},
		{"property immediate", []EventOption{WithProperties(map[string]any{PropStopImmediatePropagation: true})}, StopImmediate},
		{"property false", []EventOption{WithProperties(map[string]any{PropStopPropagation: false})}, StopNone},
		{"property non-bool", []EventOption{WithProperties(map[string]any{PropStopPropagation: "yes"})}, StopNone},
		{"property numeric", []EventOption{WithProperties(map[string]any{PropStopPropagation: 1})}, StopNone},
		{"property string true", []EventOption{WithProperties(map[string]any{PropStopImmediatePropagation: "1"})}, StopNone},
		{"both properties", []EventOption{WithProperties(map[string]any{
			PropStopPropagation:          true,
			PropStopImmediatePropagation: true,
		})}, StopImmediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvent("x", tt.opts...)
			assert.Equal(t, tt.expected, e.Stopped())
		})
	}
}

func TestNewEvent_StopPropertyIsKeptInPayload(t *testing.T) {
	e := NewEvent("x", WithProperties(map[string]any{PropStopPropagation: true}))
	v, ok := e.Get(PropStopPropagation)
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestEvent_StopMethods(t *testing.T) {
	e := NewEvent("x")
	assert.False(t, e.IsPropagationStopped())
	assert.False(t, e.IsImmediatePropagationStopped())

	e.StopPropagation()
	assert.True(t, e.IsPropagationStopped())
	assert.False(t, e.IsImmediatePropagationStopped())

	e.StopImmediatePropagation()
	assert.True(t, e.IsPropagationStopped())
	assert.True(t, e.IsImmediatePropagationStopped())
}

func TestEvent_StopPropagationDoesNotDowngrade(t *testing.T) {
	e := NewEvent("x")
	e.StopImmediatePropagation()
	e.StopPropagation()

	assert.Equal(t, StopImmediate, e.Stopped())
	assert.True(t, e.IsImmediatePropagationStopped())
}

func TestEvent_Collect(t *testing.T) {
	e := NewEvent("x")
	e.collect(nil)
	assert.Empty(t, e.ReturnValues)
	assert.Nil(t, e.ReturnValue)

	e.collect(2)
	e.collect(nil)
	e.collect("a")
	e.collect(false)

	assert.Equal(t, []any{2, "a", false}, e.ReturnValues)
	assert.Equal(t, false, e.ReturnValue)
}

func TestStopLevel_String(t *testing.T) {
	tests := []struct {
		level    StopLevel
		expected string
	}{
		{StopNone, "none"},
		{StopPropagation, "propagation"},
		{StopImmediate, "immediate"},
		{StopLevel(7), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseStopLevel(t *testing.T) {
	for _, level := range []StopLevel{StopNone, StopPropagation, StopImmediate} {
		got, err := ParseStopLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}

	got, err := ParseStopLevel("")
	require.NoError(t, err)
	assert.Equal(t, StopNone, got)

	_, err = ParseStopLevel("later")
	assert.ErrorIs(t, err, ErrInvalidStopLevel)
}

func TestEvent_String(t *testing.T) {
	e := NewEvent("a:b")
	e.StopPropagation()
	assert.Equal(t, "[Event type=a:b currentType=a:b stopped=propagation]", e.String())
}
