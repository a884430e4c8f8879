package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/termbridge/internal/providers/terminal"
	"github.com/GriffinCanCode/termbridge/internal/shared/types"
	"github.com/GriffinCanCode/termbridge/internal/shared/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = utils.MaxInputSize + 1024
	replyBuffer    = 16
)

// Metrics receives connection and message counters
type Metrics interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

type nopMetrics struct{}

func (nopMetrics) IncWSConnections()              {}
func (nopMetrics) DecWSConnections()              {}
func (nopMetrics) RecordWSMessage(string, string) {}

// Handler streams terminal sessions over WebSocket
type Handler struct {
	terminals *terminal.Manager
	metrics   Metrics
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. Nil metrics or logger disable them.
func NewHandler(terminals *terminal.Manager, metrics Metrics, logger *zap.Logger) *Handler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		terminals: terminals,
		metrics:   metrics,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Renderers run on arbitrary local origins; CORS is handled by middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleStream upgrades GET /terminals/:id/stream. The subscription is taken
// before the upgrade so unknown or exited sessions fail with a plain HTTP
// status.
func (h *Handler) HandleStream(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	frames, cancel, err := h.terminals.Subscribe(sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, terminal.ErrSessionNotFound):
			status = http.StatusNotFound
		case errors.Is(err, terminal.ErrSessionClosed):
			status = http.StatusConflict
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		h.logger.Debug("WebSocket upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Debug("Stream client connected", zap.String("remote", c.ClientIP()))

	replies := make(chan types.Frame, replyBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(conn, frames, replies, logger)
	}()

	h.readLoop(conn, sessionID, replies, done, logger)
	cancel()
	<-done

	logger.Debug("Stream client disconnected")
}

// writeLoop owns all writes to conn. It ends when the session stream closes
// or a write fails, and closes conn so the read loop unblocks.
func (h *Handler) writeLoop(conn *websocket.Conn, frames <-chan types.Frame, replies <-chan types.Frame, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"))
				return
			}
			if err := h.writeFrame(conn, frame); err != nil {
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}
		case frame := <-replies:
			if err := h.writeFrame(conn, frame); err != nil {
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame types.Frame) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	h.metrics.RecordWSMessage("out", string(frame.Type))
	return nil
}

func (h *Handler) readLoop(conn *websocket.Conn, sessionID string, replies chan<- types.Frame, done <-chan struct{}, logger *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := func(frame types.Frame) {
		frame.SessionID = sessionID
		frame.Timestamp = time.Now().UnixMilli()
		select {
		case replies <- frame:
		case <-done:
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Stream read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg types.ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.metrics.RecordWSMessage("in", "invalid")
			reply(types.Frame{Type: types.FrameError, Message: "invalid message"})
			continue
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "input":
			if err := utils.ValidateInput(msg.Input); err != nil {
				reply(types.Frame{Type: types.FrameError, Message: err.Error()})
				continue
			}
			if err := h.terminals.Write(sessionID, []byte(msg.Input)); err != nil {
				reply(types.Frame{Type: types.FrameError, Message: err.Error()})
			}
		case "resize":
			if err := h.terminals.Resize(sessionID, msg.Cols, msg.Rows); err != nil {
				reply(types.Frame{Type: types.FrameError, Message: err.Error()})
			}
		case "ping":
			reply(types.Frame{Type: types.FramePong})
		default:
			reply(types.Frame{Type: types.FrameError, Message: "unknown message type"})
		}
	}
}
