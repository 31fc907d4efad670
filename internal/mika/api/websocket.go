package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	logx "github.com/fermoza/mika-go/internal/mika/log"
)

const wsWriteWait = 10 * time.Second

// handleChatWS answers each inbound frame with one reply frame. Frames are handled
// in order and share nothing but the connection.
func (s *Server) handleChatWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "websocket upgrade failed", logx.KV("error", err))
		return
	}
	defer conn.Close()

	if limit := s.cfg.API.MaxRequestSize; limit > 0 {
		conn.SetReadLimit(limit)
	}

	ctx := context.WithoutCancel(c.Request.Context())
	frames := 0
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn(ctx, "websocket closed", logx.KV("error", err), logx.KV("frames", frames))
			}
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		frames++

		_, reply := s.chat(ctx, data)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warn(ctx, "websocket write failed", logx.KV("error", err))
			return
		}
	}
}
