// Package realtime pushes appointment events to connected portal clients
// over WebSockets. Each client is keyed by the signed-in user; an event is
// delivered to the appointment's patient and practitioner if they are
// connected. Delivery is best effort: a slow client is skipped, never waited
// on.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/notify"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// sendBuffer is the per-client outbound queue; a client that falls this far
// behind starts losing events.
const sendBuffer = 64

// client is one connected WebSocket session.
type client struct {
	userID uuid.UUID
	send   chan []byte
}

// Hub tracks connected clients per user id.
type Hub struct {
	mu      sync.RWMutex
	byUser  map[uuid.UUID]map[*client]struct{}
	logger  *logging.Logger
	dropped atomic.Int64
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{byUser: make(map[uuid.UUID]map[*client]struct{}), logger: logger}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byUser[c.userID] == nil {
		h.byUser[c.userID] = make(map[*client]struct{})
	}
	h.byUser[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.byUser[c.userID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.byUser, c.userID)
	}
	close(c.send)
}

// ConnectionCount returns the number of open client connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.byUser {
		n += len(clients)
	}
	return n
}

// Dispatch delivers one event to the appointment's parties.
func (h *Hub) Dispatch(evt notify.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("realtime: marshal event failed", "error", err)
		return
	}
	h.deliver(evt.PatientID, payload)
	if evt.PractitionerID != evt.PatientID {
		h.deliver(evt.PractitionerID, payload)
	}
}

func (h *Hub) deliver(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byUser[userID] {
		select {
		case c.send <- payload:
		default:
			// Slow client; drop rather than block the bus. Dispatch runs
			// under the read lock only, so the counter is atomic.
			h.dropped.Add(1)
		}
	}
}

// DroppedCount returns how many events were discarded for slow clients.
func (h *Hub) DroppedCount() int64 {
	return h.dropped.Load()
}

// Run consumes the subscription until ctx is cancelled, dispatching every
// event to connected clients.
func (h *Hub) Run(ctx context.Context, sub notify.Subscription) {
	for evt := range sub.Subscribe(ctx) {
		h.Dispatch(evt)
	}
}
