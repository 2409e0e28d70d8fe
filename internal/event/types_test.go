package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/eventmix/internal/event/topic"
)

type panel struct {
	Emitter
	name string
}

func TestEvented_EmbeddedHost(t *testing.T) {
	p := &panel{name: "side"}
	p.Init(p, WithLogger(discardLogger()))

	var ev Evented = p
	var got []string
	l := NewListener(func(e *Event) (any, error) {
		got = append(got, e.Target.(*panel).name+"/"+e.CurrentType.String())
		return nil, nil
	})

	ev.On("open", l).On("open:left", l)
	_, err := ev.Trigger("open:left")
	require.NoError(t, err)
	assert.Equal(t, []string{"side/open:left", "side/open"}, got)

	ev.No("open", nil).No("open:left", l)
	assert.Empty(t, p.EventNames())
}

func TestEvented_ZeroValueHost(t *testing.T) {
	var p panel
	p.OnFunc("x", noop)

	e, err := p.Trigger("x")
	require.NoError(t, err)
	assert.Same(t, &p.Emitter, e.Target)
}

func TestTriggerer(t *testing.T) {
	var tr Triggerer = New(WithLogger(discardLogger()))
	e, err := tr.Trigger(topic.Topic("anything"))
	require.NoError(t, err)
	assert.Empty(t, e.ReturnValues)
}
