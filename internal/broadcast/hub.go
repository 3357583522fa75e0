package broadcast

import (
	"sync"

	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/logging"
	"github.com/opengolfcoach/nova-bridge/internal/metrics"
)

// Transport names, used for logs and metric labels
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// Subscriber is one connected local consumer
type Subscriber interface {
	// ID identifies the subscriber in logs (normally its remote address)
	ID() string
	// Transport is the transport name the subscriber arrived on
	Transport() string
	// Send delivers one newline-terminated message
	Send(msg []byte) error
	Close() error
}

// Hub is the shared, lock-guarded subscriber set
type Hub struct {
	mu          sync.Mutex
	subscribers []Subscriber
	metrics     *metrics.Metrics
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{metrics: m}
}

// Accept appends a newly connected subscriber
func (h *Hub) Accept(s Subscriber) {
	h.mu.Lock()
	h.subscribers = append(h.subscribers, s)
	n := h.countLocked(s.Transport())
	h.mu.Unlock()

	h.metrics.SubscribersChanged(s.Transport(), n)
	logging.LogConnection(s.ID(), "subscriber_connected")
}

// Publish writes msg plus a newline to every subscriber in insertion order and
// prunes the ones that failed. It returns the number of successful deliveries.
func (h *Hub) Publish(msg []byte) int {
	line := make([]byte, 0, len(msg)+1)
	line = append(append(line, msg...), '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	var failed map[int]error
	for i, s := range h.subscribers {
		if err := s.Send(line); err != nil {
			if failed == nil {
				failed = make(map[int]error)
			}
			failed[i] = err
		}
	}

	if len(failed) == 0 {
		return len(h.subscribers)
	}

	survivors := h.subscribers[:0]
	var pruned []Subscriber
	for i, s := range h.subscribers {
		if err, ok := failed[i]; ok {
			logging.Warn("Dropping subscriber after failed write",
				zap.String("subscriber", s.ID()),
				zap.String("transport", s.Transport()),
				zap.Error(err),
			)
			_ = s.Close()
			h.metrics.PublishFailed(s.Transport())
			pruned = append(pruned, s)
			continue
		}
		survivors = append(survivors, s)
	}
	// Clear the tail so pruned subscribers can be collected
	for i := len(survivors); i < len(h.subscribers); i++ {
		h.subscribers[i] = nil
	}
	h.subscribers = survivors

	for _, transport := range transportsOf(pruned) {
		h.metrics.SubscribersChanged(transport, h.countLocked(transport))
	}

	return len(survivors)
}

// Len returns the number of current subscribers
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Subscribers returns a snapshot of the subscriber set in order
func (h *Hub) Subscribers() []Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Subscriber, len(h.subscribers))
	copy(out, h.subscribers)
	return out
}

// Close disconnects every subscriber and empties the set
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = nil
	h.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
		logging.LogConnection(s.ID(), "subscriber_closed")
	}
	for _, transport := range transportsOf(subs) {
		h.metrics.SubscribersChanged(transport, 0)
	}
}

func (h *Hub) countLocked(transport string) int {
	n := 0
	for _, s := range h.subscribers {
		if s.Transport() == transport {
			n++
		}
	}
	return n
}

func transportsOf(subs []Subscriber) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range subs {
		if !seen[s.Transport()] {
			seen[s.Transport()] = true
			out = append(out, s.Transport())
		}
	}
	return out
}
