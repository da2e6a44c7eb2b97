package ws

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zaqqye/feedhub_v1/internal/protocol"
)

const viewerSendBuffer = 256

type viewerMessage struct {
	pin     string
	payload []byte
}

// DashboardHub relays room events to browsers watching the local dashboard.
// Viewers only receive messages for the PIN they subscribed to.
type DashboardHub struct {
	register   chan *viewerClient
	unregister chan *viewerClient
	broadcast  chan viewerMessage
	clients    map[*viewerClient]struct{}
	stopped    chan struct{}
	viewers    atomic.Int64
	log        logrus.FieldLogger
}

func NewDashboardHub(log logrus.FieldLogger) *DashboardHub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DashboardHub{
		register:   make(chan *viewerClient),
		unregister: make(chan *viewerClient),
		broadcast:  make(chan viewerMessage, 256),
		clients:    make(map[*viewerClient]struct{}),
		stopped:    make(chan struct{}),
		log:        log,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every viewer.
func (h *DashboardHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			close(h.stopped)
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.viewers.Add(1)
			h.log.WithField("pin", client.pin).Debug("dashboard viewer connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.pin != msg.pin {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					h.log.WithField("pin", client.pin).Warn("slow dashboard viewer dropped")
					h.drop(client)
				}
			}
		}
	}
}

// Viewers reports how many dashboard viewers are connected.
func (h *DashboardHub) Viewers() int {
	if h == nil {
		return 0
	}
	return int(h.viewers.Load())
}

func (h *DashboardHub) drop(client *viewerClient) {
	delete(h.clients, client)
	h.viewers.Add(-1)
	close(client.send)
	client.conn.Close()
}

// Publish relays msg to the viewers of pin. It never blocks the caller for
// long: when the hub backlog is full the message is dropped.
func (h *DashboardHub) Publish(pin string, msg protocol.Message) {
	if h == nil {
		return
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		h.log.WithError(err).Warn("dashboard: failed to encode message")
		return
	}
	select {
	case h.broadcast <- viewerMessage{pin: pin, payload: data}:
	case <-h.stopped:
	case <-time.After(writeWait):
		h.log.WithField("pin", pin).Warn("dashboard: broadcast backlog full")
	}
}

// PublishEvent converts a session Event into the wire message viewers expect.
func (h *DashboardHub) PublishEvent(pin string, ev Event) {
	switch e := ev.(type) {
	case RosterChanged:
		h.Publish(pin, protocol.StudentListUpdate{Students: e.Students})
	case QuestionChanged:
		h.Publish(pin, protocol.QuestionUpdate{Question: e.Question})
	case ActivityStarted:
		h.Publish(pin, protocol.ActivityStarted{Kind: protocol.TypeActivityStarted})
	case FeedbackAdded:
		h.Publish(pin, protocol.FeedbackPush{Feedback: e.Feedback})
	}
}

// attach registers conn as a viewer of pin and serves it until it disconnects.
func (h *DashboardHub) attach(conn *websocket.Conn, pin string) {
	client := newViewerClient(h, conn, pin)
	select {
	case h.register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}
	go client.writePump()
	client.readPump()
}

type viewerClient struct {
	hub  *DashboardHub
	conn *websocket.Conn
	send chan []byte
	pin  string
}

func newViewerClient(hub *DashboardHub, conn *websocket.Conn, pin string) *viewerClient {
	return &viewerClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, viewerSendBuffer),
		pin:  pin,
	}
}

// readPump only services control frames; viewers are read-only.
func (c *viewerClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *viewerClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
