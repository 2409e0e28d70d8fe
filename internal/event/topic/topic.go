package topic

import "strings"

// Topic is a hierarchical event name in colon notation, e.g. "a:b:c".
type Topic string

// Separator divides topic segments.
const Separator = ":"

func (t Topic) String() string {
	return string(t)
}

// Parent drops the last segment. A topic without a separator has no
// parent and yields "".
func (t Topic) Parent() Topic {
	idx := strings.LastIndex(string(t), Separator)
	if idx < 0 {
		return ""
	}
	return t[:idx]
}

// Child appends segment. The child of "" is the segment itself.
func (t Topic) Child(segment string) Topic {
	if t == "" {
		return Topic(segment)
	}
	return t + Separator + Topic(segment)
}

// IsValid reports whether the topic is non-empty and has no empty
// segments. Any topic can be subscribed to and triggered; this is for
// callers that want stricter names.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range strings.Split(string(t), Separator) {
		if seg == "" {
			return false
		}
	}
	return true
}

// Level is one prefix of a topic visited while bubbling.
type Level struct {
	// Key is the registry key looked up at this level.
	Key Topic

	// Rest holds the segments stripped off to reach Key, in order.
	Rest []string
}

// Levels walks the topic from the full name down to its first segment.
// The empty topic has a single level keyed "", so listeners registered
// under "" are reachable.
//
// Example: "a:b:c" -> {"a:b:c", []}, {"a:b", ["c"]}, {"a", ["b", "c"]}
func (t Topic) Levels() []Level {
	levels := make([]Level, 0, strings.Count(string(t), Separator)+1)
	var stripped []string
	for key := t; ; {
		rest := make([]string, len(stripped))
		copy(rest, stripped)
		levels = append(levels, Level{Key: key, Rest: rest})

		if !strings.Contains(string(key), Separator) {
			return levels
		}
		parent := key.Parent()
		stripped = append([]string{string(key[len(parent)+len(Separator):])}, stripped...)
		key = parent
	}
}

// FromString converts s to a Topic.
func FromString(s string) Topic {
	return Topic(s)
}
