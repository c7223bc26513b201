package pool

type EventType string

const (
	EventStarted   EventType = "sandbox:started"
	EventStopped   EventType = "sandbox:stopped"
	EventRemoved   EventType = "sandbox:removed"
	EventUnhealthy EventType = "sandbox:unhealthy"
)

// Event is emitted to registered handlers on sandbox lifecycle changes.
// Status carries the observed non-running state for EventUnhealthy.
type Event struct {
	Type       EventType `json:"type"`
	WorkloadID string    `json:"workload_id"`
	SandboxID  string    `json:"sandbox_id,omitempty"`
	Status     string    `json:"status,omitempty"`
}

// EventHandler receives events synchronously, in registration order.
// Handlers must not block.
type EventHandler func(Event)

// OnEvent registers a handler. Registration is not safe for use
// concurrently with pool operations; register everything during wiring.
func (m *Manager) OnEvent(h EventHandler) {
	m.handlers = append(m.handlers, h)
}

func (m *Manager) emit(e Event) {
	for _, h := range m.handlers {
		h(e)
	}
}
