package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/clinicdesk/clinic-api/internal/api/respond"
	"github.com/clinicdesk/clinic-api/internal/session"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Handler upgrades authenticated requests to WebSocket connections and pumps
// hub events to them. Clients only receive; inbound frames are read and
// discarded to detect disconnects.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewHandler creates the WebSocket handler. checkOrigin may be nil to accept
// every origin.
func NewHandler(hub *Hub, checkOrigin func(r *http.Request) bool, logger *logging.Logger) *Handler {
	if hub == nil {
		panic("realtime: hub required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /ws.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "authentication required")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("realtime: upgrade failed", "error", err)
		return
	}

	c := &client{userID: sess.UserID, send: make(chan []byte, sendBuffer)}
	h.hub.register(c)
	h.logger.Info("realtime: client connected", "user_id", sess.UserID)

	go h.writePump(c, ws)
	go h.readPump(c, ws)
}

func (h *Handler) readPump(c *client, ws *websocket.Conn) {
	defer func() {
		h.hub.unregister(c)
		_ = ws.Close()
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(c *client, ws *websocket.Conn) {
	defer func() { _ = ws.Close() }()
	for payload := range c.send {
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
