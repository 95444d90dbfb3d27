package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"go.uber.org/zap"
)

const wsMaxMessageBytes = 8192

// wsFrame is one inbound chat message. ConvID lets a reconnecting client
// resume its conversation; when absent the connection's own id is used.
type wsFrame struct {
	Text   string `json:"text"`
	ConvID string `json:"conv_id,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	convID := uuid.NewString()
	s.logger.Info("WebSocket client connected", zap.String("conv_id", convID))

	s.serveConn(conn, convID)
}

// serveConn runs the per-connection loop: JSON frames in, routed replies
// out, with keepalive pings on the side.
func (s *Server) serveConn(conn *websocket.Conn, convID string) {
	defer func() {
		_ = conn.Close()
		s.logger.Info("WebSocket client disconnected", zap.String("conv_id", convID))
	}()

	conn.SetReadLimit(wsMaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(constants.WebSocketConfig.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.WebSocketConfig.PongTimeout))
	})

	// replies and pings share the connection, writes are serialized
	var writeMu sync.Mutex
	stopPing := make(chan struct{})
	defer close(stopPing)

	go s.pingLoop(conn, &writeMu, stopPing)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("WebSocket read error", zap.String("conv_id", convID), zap.Error(err))
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.writeFrame(conn, &writeMu, errorResponse{Error: "invalid JSON frame"})
			continue
		}

		frameConv := convID
		if frame.ConvID != "" {
			frameConv = frame.ConvID
		}

		reply := s.routeFrame(frame.Text, frameConv)
		if !s.writeFrame(conn, &writeMu, reply) {
			return
		}
	}
}

func (s *Server) routeFrame(text, convID string) any {
	ctx, cancel := context.WithTimeout(context.Background(), constants.BotChainConfig.RequestTimeout)
	defer cancel()

	reply, err := s.deps.Router.Route(ctx, &domain.ChatRequest{Text: text, ConvID: convID})
	if err != nil {
		s.logger.Error("WebSocket routing failed", zap.String("conv_id", convID), zap.Error(err))
		return errorResponse{Error: "could not process message"}
	}
	return reply
}

func (s *Server) writeFrame(conn *websocket.Conn, writeMu *sync.Mutex, v any) bool {
	writeMu.Lock()
	defer writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(constants.WebSocketConfig.WriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		s.logger.Warn("WebSocket write failed", zap.Error(err))
		return false
	}
	return true
}

func (s *Server) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, stop <-chan struct{}) {
	ticker := time.NewTicker(constants.WebSocketConfig.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(constants.WebSocketConfig.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
