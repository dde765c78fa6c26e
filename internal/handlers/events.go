package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 70 * time.Second
	wsPingPeriod = 30 * time.Second
)

type eventMessage struct {
	Type string `json:"type"`
}

// HandleEvents upgrades the connection and streams change notifications
// ("guests_changed" / "groups_changed") until the client goes away. The
// client never sends application messages; reads only service pings.
func (h *Handlers) HandleEvents(c *gin.Context) {
	conn, err := h.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Default().Warn("ws upgrade failed", "ip", c.ClientIP(), "error", err)
		return
	}

	client := &eventClient{
		conn: conn,
		send: make(chan []byte, 32),
		id:   uuid.New().String(),
	}
	h.hub.Add(client)
	slog.Default().Debug("ws connected", "client_id", client.id, "clients", h.hub.Count())

	go h.eventsWritePump(client)
	h.eventsReadPump(client)
}

func (h *Handlers) eventsReadPump(client *eventClient) {
	defer func() {
		_ = client.conn.Close()
		h.hub.Remove(client.id)
		slog.Default().Debug("ws disconnected", "client_id", client.id)
	}()

	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handlers) eventsWritePump(client *eventClient) {
	defer func() {
		_ = client.conn.Close()
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) notifyGuestsChanged() {
	h.broadcastEvent("guests_changed")
}

func (h *Handlers) notifyGroupsChanged() {
	h.broadcastEvent("groups_changed")
}

func (h *Handlers) broadcastEvent(eventType string) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(eventMessage{Type: eventType})
	if err != nil {
		return
	}
	h.hub.Broadcast(payload)
}
