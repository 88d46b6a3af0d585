// Package sse fans out per-user server-sent events to connected clients.
package sse

import (
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event is one message delivered to a client.
type Event struct {
	Type    string
	Payload interface{}
}

const (
	clientBuffer      = 16
	heartbeatInterval = 25 * time.Second
)

// Manager keeps the open streams of every user.
type Manager struct {
	mu       sync.RWMutex
	clients  map[string]map[chan Event]struct{}
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewManager creates a new SSE manager
func NewManager() *Manager {
	return &Manager{
		clients:  make(map[string]map[chan Event]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Run sends heartbeats to every client until Stop is called.
func (m *Manager) Run() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.broadcast(Event{Type: "ping", Payload: gin.H{"time": time.Now().Unix()}})
		case <-m.stopChan:
			log.Println("[SSE] Manager stopped")
			return
		}
	}
}

// Stop ends Run.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Subscribe registers a new stream for userID.
func (m *Manager) Subscribe(userID string) chan Event {
	ch := make(chan Event, clientBuffer)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clients[userID] == nil {
		m.clients[userID] = make(map[chan Event]struct{})
	}
	m.clients[userID][ch] = struct{}{}
	log.Printf("[SSE] Client connected for user %s (%d open)", userID, len(m.clients[userID]))
	return ch
}

// Unsubscribe removes a stream registered by Subscribe.
func (m *Manager) Unsubscribe(userID string, ch chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if streams, ok := m.clients[userID]; ok {
		delete(streams, ch)
		if len(streams) == 0 {
			delete(m.clients, userID)
		}
	}
	log.Printf("[SSE] Client disconnected for user %s", userID)
}

// ClientCount returns the number of open streams of userID.
func (m *Manager) ClientCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

// SendToUser queues an event on every stream of userID. Slow clients drop events
// rather than block the sender.
func (m *Manager) SendToUser(userID, eventType string, payload interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range m.clients[userID] {
		select {
		case ch <- Event{Type: eventType, Payload: payload}:
		default:
			log.Printf("[SSE] Dropping %s event for user %s: client buffer full", eventType, userID)
		}
	}
}

func (m *Manager) broadcast(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, streams := range m.clients {
		for ch := range streams {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// ServeHTTP streams the user's events until the request context ends.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ch := m.Subscribe(userID)
	defer m.Unsubscribe(userID, ch)

	c.SSEvent("connected", gin.H{"user_id": userID})
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case ev := <-ch:
			c.SSEvent(ev.Type, ev.Payload)
			c.Writer.Flush()
		case <-ctx.Done():
			// Write whatever was queued before the client went away.
			for {
				select {
				case ev := <-ch:
					c.SSEvent(ev.Type, ev.Payload)
				default:
					c.Writer.Flush()
					return
				}
			}
		}
	}
}
