// ABOUTME: WebSocket diagnostic tap streaming engine events to observers
// ABOUTME: Fan-out with bounded queues; slow clients are dropped
package tap

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/soundcue/soundcue-go/pkg/cue"
)

// sendQueueSize bounds the per-client backlog before the tap gives up
// on a slow reader
const sendQueueSize = 64

// Tap streams engine events to connected websocket clients. It is a
// diagnostic surface: losing events to a slow client is acceptable,
// stalling the engine is not.
type Tap struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// New creates a tap with no clients
func New(logger zerolog.Logger) *Tap {
	return &Tap{
		log: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local diagnostic endpoint, not an authenticated surface
				return true
			},
		},
		clients: make(map[string]*client),
	}
}

// Attach subscribes the tap to every event type on the bus
func (t *Tap) Attach(bus *cue.Bus) {
	for _, et := range []cue.EventType{cue.EventPlay, cue.EventStop, cue.EventLoad, cue.EventError, cue.EventState} {
		bus.Subscribe(et, t.Publish)
	}
}

// Handler returns the websocket upgrade handler
func (t *Tap) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := t.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.log.Warn().Err(err).Msg("tap upgrade failed")
			return
		}

		c := &client{
			id:   uuid.New().String(),
			conn: conn,
			send: make(chan []byte, sendQueueSize),
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			conn.Close()
			return
		}
		t.clients[c.id] = c
		t.mu.Unlock()

		t.log.Debug().Str("client", c.id).Msg("tap client connected")

		go t.writeLoop(c)
		t.readLoop(c)
	})
}

// Publish fans an event out to every connected client. Never blocks;
// clients that cannot keep up are disconnected.
func (t *Tap) Publish(ev cue.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to encode tap event")
		return
	}

	t.mu.Lock()
	var slow []*client
	for _, c := range t.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(t.clients, c.id)
	}
	t.mu.Unlock()

	for _, c := range slow {
		t.log.Warn().Str("client", c.id).Msg("dropping slow tap client")
		close(c.send)
	}
}

// ClientCount returns the number of connected clients
func (t *Tap) ClientCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// Close disconnects every client
func (t *Tap) Close() {
	t.mu.Lock()
	clients := t.clients
	t.clients = make(map[string]*client)
	t.closed = true
	t.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (t *Tap) writeLoop(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			t.remove(c)
			return
		}
	}
}

// readLoop drains the connection so close frames are processed
func (t *Tap) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.log.Debug().Str("client", c.id).Err(err).Msg("tap client read error")
			}
			t.remove(c)
			return
		}
	}
}

// remove drops a client if still registered, closing its queue once
func (t *Tap) remove(c *client) {
	t.mu.Lock()
	_, ok := t.clients[c.id]
	if ok {
		delete(t.clients, c.id)
	}
	t.mu.Unlock()

	if ok {
		close(c.send)
	}
}
