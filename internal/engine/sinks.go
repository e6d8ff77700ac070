package engine

import (
	"sync"

	"github.com/feralgames/frontline/internal/model"
)

// MemorySink collects events in memory. Used by tests, the headless
// simulator, and as a fallback when no durable sink is configured.
type MemorySink struct {
	mu     sync.Mutex
	events []model.TerritorialEvent
}

func (m *MemorySink) Append(ev model.TerritorialEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = int64(len(m.events) + 1)
	m.events = append(m.events, ev)
}

// Events returns a copy of everything appended so far, in order.
func (m *MemorySink) Events() []model.TerritorialEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TerritorialEvent, len(m.events))
	copy(out, m.events)
	return out
}

// CollectNotifier records notifications in memory for assertions.
type CollectNotifier struct {
	mu            sync.Mutex
	notifications []model.Notification
}

func (c *CollectNotifier) Notify(n model.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
}

// Notifications returns a copy of everything received so far.
func (c *CollectNotifier) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// OfKind filters collected notifications by kind.
func (c *CollectNotifier) OfKind(kind string) []model.Notification {
	var out []model.Notification
	for _, n := range c.Notifications() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
