package http

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The daemon serves local UI collaborators only.
		return true
	},
}

// EventStream upgrades to a WebSocket and pushes every intervention
// event until the client disconnects.
func (h *Handlers) EventStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.gov.Subscribe()
	defer cancel()

	// Reader goroutine: its only job is noticing the disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := sonic.Marshal(event)
			if err != nil {
				h.logger.Warn("event marshal failed", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("websocket write failed, closing", zap.Error(err))
				return
			}
		}
	}
}
