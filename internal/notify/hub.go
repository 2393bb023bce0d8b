package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// EventBoardUpdated is sent whenever a reconciliation pass changed a board.
const EventBoardUpdated = "board-updated"

// subscriberBuffer is how many events a client may lag behind before it is
// disconnected.
const subscriberBuffer = 16

var ErrClosed = errors.New("notification hub is closed")

// Event is the JSON payload pushed to websocket subscribers.
type Event struct {
	Type      string `json:"type"`
	BoardID   string `json:"boardId"`
	Timestamp string `json:"timestamp"`
}

type subscriber struct {
	events    chan Event
	closeSlow func()
	shutdown  func()
}

// Hub fans board-change events out to websocket subscribers. Broadcasting
// never blocks: a subscriber whose buffer is full is disconnected instead.
type Hub struct {
	logger *log.Logger

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:      logger,
		subscribers: map[*subscriber]struct{}{},
	}
}

// BoardUpdated broadcasts a change event for one board.
func (h *Hub) BoardUpdated(boardID uuid.UUID) {
	h.broadcast(Event{
		Type:      EventBoardUpdated,
		BoardID:   boardID.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Subscribe pumps events to conn until the client disconnects, the context
// is canceled, or the hub closes. It owns the read side of the connection;
// clients are not expected to send frames.
func (h *Hub) Subscribe(ctx context.Context, conn *websocket.Conn) error {
	sub := &subscriber{
		events: make(chan Event, subscriberBuffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "subscriber too slow to keep up")
		},
		shutdown: func() {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		},
	}
	if err := h.add(sub); err != nil {
		return err
	}
	defer h.remove(sub)

	ctx = conn.CloseRead(ctx)
	for {
		select {
		case ev := <-sub.events:
			if err := writeTimeout(ctx, 5*time.Second, conn, ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subscribers
	h.subscribers = map[*subscriber]struct{}{}
	h.mu.Unlock()

	for sub := range subs {
		sub.shutdown()
	}
	h.logger.Info("🛑 Notification hub closed")
}

// SubscriberCount reports how many clients are currently attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.events <- ev:
		default:
			go sub.closeSlow()
		}
	}
}

func (h *Hub) add(sub *subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.subscribers[sub] = struct{}{}
	return nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, sub)
}

func writeTimeout(ctx context.Context, timeout time.Duration, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
