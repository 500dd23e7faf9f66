// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

type EventType int

const (
	EventFetchStarted EventType = iota + 1
	EventFetchSucceeded
	EventFetchFailed
	EventDataSet
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventFetchStarted:
		return "fetch-started"
	case EventFetchSucceeded:
		return "fetch-succeeded"
	case EventFetchFailed:
		return "fetch-failed"
	case EventDataSet:
		return "data-set"
	case EventRemoved:
		return "removed"
	}
	return "unknown"
}

// Event describes one state transition of a cache entry. State is the
// snapshot after the transition.
type Event struct {
	Type  EventType
	Key   string
	State State
}

// Listener is called synchronously after every transition. It must not call
// back into methods of the Cache that mutate state (SetData, Fetch, Ensure,
// Remove); reading with Get or IsStale is fine.
type Listener func(Event)

type listenerSlot struct {
	id int
	fn Listener
}

// Subscribe registers l and returns a function that unregisters it.
// Listeners are called in registration order.
func (c *Cache) Subscribe(l Listener) (unsubscribe func()) {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerSlot{id: id, fn: l})

	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		for i, slot := range c.listeners {
			if slot.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Cache) emit(e Event) {
	c.lmu.Lock()
	slots := make([]listenerSlot, len(c.listeners))
	copy(slots, c.listeners)
	c.lmu.Unlock()

	for _, slot := range slots {
		slot.fn(e)
	}
}
