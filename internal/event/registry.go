package event

import (
	"sort"
	"sync"

	"github.com/dshills/eventmix/internal/event/topic"
)

// Registry maps topics to their listener descriptors, most recently
// registered first. A topic is present only while it has descriptors.
// It is safe for concurrent access.
type Registry struct {
	mu    sync.RWMutex
	lists map[topic.Topic][]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		lists: make(map[topic.Topic][]*Descriptor),
	}
}

// Prepend inserts a descriptor at the front of its topic's list.
func (r *Registry) Prepend(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.lists[d.Type]
	list := make([]*Descriptor, 0, len(old)+1)
	list = append(list, d)
	list = append(list, old...)
	r.lists[d.Type] = list
}

// Remove removes every descriptor under name whose Callback is l.
// It returns the number removed and whether a list existed for name.
func (r *Registry) Remove(name topic.Topic, l *Listener) (removed int, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.lists[name]
	if !ok {
		return 0, false
	}

	// Compact into a fresh slice; snapshots handed out earlier keep
	// their own backing array.
	kept := make([]*Descriptor, 0, len(list))
	for _, d := range list {
		if d.Callback == l {
			removed++
			continue
		}
		kept = append(kept, d)
	}

	if len(kept) == 0 {
		delete(r.lists, name)
	} else {
		r.lists[name] = kept
	}
	return removed, true
}

// RemoveAll deletes the whole list for name and returns how many
// descriptors it held.
func (r *Registry) RemoveAll(name topic.Topic) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.lists[name])
	delete(r.lists, name)
	return n
}

// Snapshot returns a copy of the descriptors registered under name,
// in dispatch order. Returns nil if there are none.
func (r *Registry) Snapshot(name topic.Topic) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.lists[name]
	if len(list) == 0 {
		return nil
	}

	result := make([]*Descriptor, len(list))
	copy(result, list)
	return result
}

// Has reports whether any descriptor is registered under name.
func (r *Registry) Has(name topic.Topic) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.lists[name]
	return ok
}

// Count returns the number of descriptors registered under name.
func (r *Registry) Count(name topic.Topic) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.lists[name])
}

// Len returns the total number of descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, list := range r.lists {
		n += len(list)
	}
	return n
}

// Names returns every topic with registered descriptors, sorted.
func (r *Registry) Names() []topic.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.lists) == 0 {
		return nil
	}

	names := make([]topic.Topic, 0, len(r.lists))
	for name := range r.lists {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names
}

// Clear removes all descriptors and returns how many there were.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, list := range r.lists {
		n += len(list)
	}
	r.lists = make(map[topic.Topic][]*Descriptor)
	return n
}
