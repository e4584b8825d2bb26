package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"food-delivery/models"
	"food-delivery/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	subBuffer  = 8
)

// OrderEvent is one message on an order's websocket stream.
type OrderEvent struct {
	Type  string        `json:"type"` // "snapshot" or "status"
	From  string        `json:"from,omitempty"`
	Order *models.Order `json:"order"`
}

type subscriber struct {
	ch chan OrderEvent
}

// Hub fans order status changes out to websocket watchers. It is a
// services.Notifier.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
	log  logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), log: log.WithField("component", "hub")}
}

func (h *Hub) subscribe(orderID string) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &subscriber{ch: make(chan OrderEvent, subBuffer)}
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[*subscriber]struct{})
	}
	h.subs[orderID][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(orderID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[orderID], sub)
	if len(h.subs[orderID]) == 0 {
		delete(h.subs, orderID)
	}
}

// Watchers returns how many streams are open for the order.
func (h *Hub) Watchers(orderID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[orderID])
}

// OrderCreated is a no-op: nobody can watch an order before it exists.
func (h *Hub) OrderCreated(context.Context, *models.Order) {}

func (h *Hub) OrderStatusChanged(_ context.Context, o *models.Order, from string) {
	snapshot := *o
	ev := OrderEvent{Type: "status", From: from, Order: &snapshot}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[o.ID] {
		select {
		case sub.ch <- ev:
		default:
			h.log.WithField("order_id", o.ID).Warn("watcher too slow, event dropped")
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is checked with the bearer token, not the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

func isFinal(status string) bool {
	return status == models.OrderStatusDelivered || status == models.OrderStatusSuspended
}

// handleWatchOrder streams an order: a snapshot first, then every status
// change until the order is delivered or suspended.
func (s *Server) handleWatchOrder(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	id := mux.Vars(r)["id"]
	// Subscribe before reading the snapshot so a change landing between
	// the two is still delivered.
	sub := s.hub.subscribe(id)
	defer s.hub.unsubscribe(id, sub)
	o, err := s.svc.GetOrder(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev OrderEvent) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev) == nil
	}
	if !send(OrderEvent{Type: "snapshot", Order: o}) || isFinal(o.Status) {
		closeStream(conn)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	current := o.Status
	for {
		select {
		case ev := <-sub.ch:
			// Events queued before the snapshot was read may repeat it.
			if ev.Order.Status == current {
				continue
			}
			current = ev.Order.Status
			if !send(ev) {
				return
			}
			if isFinal(ev.Order.Status) {
				closeStream(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "order closed"),
		time.Now().Add(writeWait))
}
