package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pe-scenario-lab/backend/internal/montecarlo"
	"pe-scenario-lab/backend/internal/scenario"
)

// SimulationEvent describes websocket payloads emitted after each batch.
type SimulationEvent struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Tool       scenario.Tool          `json:"tool"`
	Requested  int                    `json:"requested"`
	Retained   int                    `json:"retained"`
	Headline   string                 `json:"headline"`
	Band       montecarlo.Percentiles `json:"band"`
	FiredRules []string               `json:"fired_rules,omitempty"`
	ElapsedMs  int64                  `json:"elapsed_ms"`
	Timestamp  time.Time              `json:"timestamp"`
}

func newSimulationEvent(tool scenario.Tool, batch *montecarlo.Batch[scenario.Rule], elapsedMs int64) SimulationEvent {
	headline := batch.Headline()
	return SimulationEvent{
		Type:       "simulation",
		ID:         uuid.NewString(),
		Tool:       tool,
		Requested:  batch.Requested,
		Retained:   batch.Retained(),
		Headline:   headline,
		Band:       batch.Summary[headline],
		FiredRules: batch.Fired.Strings(),
		ElapsedMs:  elapsedMs,
	}
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// SimulationNotifier keeps track of active websocket clients and broadcasts simulation events.
type SimulationNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    *SimulationEvent
}

// NewSimulationNotifier constructs a notifier instance.
func NewSimulationNotifier() *SimulationNotifier {
	return &SimulationNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the most recent event.
func (n *SimulationNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.last
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *SimulationNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *SimulationNotifier) Broadcast(event SimulationEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	snapshot := event
	n.last = &snapshot
	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// Count returns the number of connected clients.
func (n *SimulationNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// Last returns a copy of the most recent event, if any.
func (n *SimulationNotifier) Last() *SimulationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return nil
	}
	copy := *n.last
	return &copy
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
