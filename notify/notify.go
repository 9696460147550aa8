// Package notify delivers change notifications for settings mutations.
//
// Observers subscribe to all changes or to one key prefix. Delivery is
// synchronous and happens on the goroutine that performed the mutation,
// matching the settings library's single-threaded cooperative model; an
// observer that needs to hand work off must do so itself.
package notify

import (
	"sync"
)

// ChangeType classifies a settings change.
type ChangeType int

const (
	// ChangeSet indicates a value was assigned.
	ChangeSet ChangeType = iota

	// ChangeRemove indicates a key was marked absent.
	ChangeRemove

	// ChangeClear indicates every key was scheduled for removal.
	ChangeClear

	// ChangeReload indicates the cache was rebuilt from storage.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeRemove:
		return "remove"
	case ChangeClear:
		return "clear"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change is one settings change event.
type Change struct {
	// Key is the absolute, slash-delimited key that changed. Empty for
	// clear and reload events.
	Key string

	// Type classifies the change.
	Type ChangeType

	// OldValue is the previous raw value, "" when there was none.
	OldValue string

	// NewValue is the new raw value, "" for removals.
	NewValue string

	// Location is the storage location involved, set on reload events.
	Location string
}

// Observer receives change events.
type Observer func(change Change)

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	prefix   string
	all      bool
	observer Observer
}

// Notifier manages change subscriptions. It is safe for concurrent
// subscription management, though delivery follows the mutating caller.
type Notifier struct {
	mu      sync.RWMutex
	entries map[uint64]entry
	nextID  uint64
}

// New creates an empty notifier.
func New() *Notifier {
	return &Notifier{entries: make(map[uint64]entry)}
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add(entry{all: true, observer: observer})
}

// SubscribeKey registers an observer for changes to one key or any key below
// it. Subscribing to "db" receives changes to "db/host". Clear and reload
// events are delivered to every subscriber.
func (n *Notifier) SubscribeKey(key string, observer Observer) *Subscription {
	return n.add(entry{prefix: key, observer: observer})
}

// Notify delivers the change to all matching observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	var observers []Observer
	for _, e := range n.entries {
		if e.all || change.Key == "" || matchesPrefix(e.prefix, change.Key) {
			observers = append(observers, e.observer)
		}
	}
	n.mu.RUnlock()

	// Observers run outside the lock so they may subscribe or unsubscribe.
	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) add(e entry) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.entries[id] = e
	return &Subscription{id: id, notifier: n}
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.entries, id)
}

// matchesPrefix reports whether key equals prefix or lives below it in the
// slash-delimited hierarchy.
func matchesPrefix(prefix, key string) bool {
	if prefix == key {
		return true
	}
	return len(key) > len(prefix) && key[:len(prefix)] == prefix && key[len(prefix)] == '/'
}
