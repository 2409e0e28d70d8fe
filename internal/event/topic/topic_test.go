package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopic_Parent(t *testing.T) {
	tests := []struct {
		topic    Topic
		expected Topic
	}{
		{Topic("test:foo:bar"), Topic("test:foo")},
		{Topic("config:changed"), Topic("config")},
		{Topic("single"), Topic("")},
		{Topic(""), Topic("")},
		{Topic("a::b"), Topic("a:")},
	}

	for _, tt := range tests {
		t.Run(tt.topic.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.topic.Parent())
		})
	}
}

func TestTopic_Child(t *testing.T) {
	tests := []struct {
		topic    Topic
		segment  string
		expected Topic
	}{
		{Topic("test"), "foo", Topic("test:foo")},
		{Topic("test:foo"), "bar", Topic("test:foo:bar")},
		{Topic(""), "test", Topic("test")},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.topic.Child(tt.segment))
		})
	}
}

func TestTopic_IsValid(t *testing.T) {
	tests := []struct {
		topic    Topic
		expected bool
	}{
		{Topic("test:foo:bar"), true},
		{Topic("single"), true},
		{Topic("a.b:c"), true},
		{Topic(""), false},
		{Topic(":test"), false},
		{Topic("test:"), false},
		{Topic("test::foo"), false},
		{Topic(":"), false},
	}

	for _, tt := range tests {
		t.Run(tt.topic.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.topic.IsValid())
		})
	}
}

func TestTopic_Levels(t *testing.T) {
	tests := []struct {
		name     string
		topic    Topic
		expected []Level
	}{
		{
			name:  "three segments",
			topic: Topic("a:b:c"),
			expected: []Level{
				{Key: "a:b:c", Rest: []string{}},
				{Key: "a:b", Rest: []string{"c"}},
				{Key: "a", Rest: []string{"b", "c"}},
			},
		},
		{
			name:     "single segment",
			topic:    Topic("click"),
			expected: []Level{{Key: "click", Rest: []string{}}},
		},
		{
			name:     "empty topic",
			topic:    Topic(""),
			expected: []Level{{Key: "", Rest: []string{}}},
		},
		{
			name:  "trailing separator",
			topic: Topic("a:"),
			expected: []Level{
				{Key: "a:", Rest: []string{}},
				{Key: "a", Rest: []string{""}},
			},
		},
		{
			name:  "empty segment kept",
			topic: Topic("a::b"),
			expected: []Level{
				{Key: "a::b", Rest: []string{}},
				{Key: "a:", Rest: []string{"b"}},
				{Key: "a", Rest: []string{"", "b"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.topic.Levels())
		})
	}
}

func TestTopic_LevelsRestIsIndependent(t *testing.T) {
	levels := Topic("a:b:c").Levels()
	levels[2].Rest[0] = "changed"

	assert.Equal(t, []string{"c"}, levels[1].Rest)
	assert.Equal(t, []string{"b", "c"}, Topic("a:b:c").Levels()[2].Rest)
}

func TestFromString(t *testing.T) {
	assert.Equal(t, Topic("test:foo"), FromString("test:foo"))
	assert.Equal(t, "test:foo", FromString("test:foo").String())
}

func BenchmarkTopic_Levels(b *testing.B) {
	topic := Topic("test:foo:bar")
	for i := 0; i < b.N; i++ {
		_ = topic.Levels()
	}
}
