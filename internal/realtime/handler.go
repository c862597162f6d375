package realtime

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// clientFrame is a message received from the client.
type clientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler serves the websocket endpoint and drives the per-connection state
// machine: unauthenticated until an identity claim arrives, then bound in
// the hub until the connection drops.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket gateway over the given hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			// Cross-origin is handled by the CORS middleware for the REST
			// surface; the websocket endpoint mirrors that openness.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register registers the websocket route
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve upgrades the connection and runs its read loop.
func (h *Handler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	session := NewSession(conn)
	defer h.hub.Deregister(session)

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		h.dispatch(session, frame)
	}
	return nil
}

func (h *Handler) dispatch(session *Session, frame clientFrame) {
	switch frame.Event {

	case "authenticate":
		var data struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.UserID == "" {
			return
		}
		h.hub.Register(data.UserID, session)

	// Group joins are deliberately open to unauthenticated sessions:
	// timeline rooms carry the same data as the public REST surface, so a
	// spectator may watch without identifying themselves. Personal pushes
	// and typing relays still require authenticate.
	case "joinGroup":
		var data struct {
			Group string `json:"group"`
		}
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.Group == "" {
			return
		}
		h.hub.JoinGroup(session, data.Group)

	case "leaveGroup":
		var data struct {
			Group string `json:"group"`
		}
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.Group == "" {
			return
		}
		h.hub.LeaveGroup(session, data.Group)

	// Typing signals are ephemeral: relayed to the recipient's channels,
	// never persisted.
	case "typing", "stopTyping":
		userID := session.UserID()
		if userID == "" {
			return
		}
		var data struct {
			RecipientID string `json:"recipient_id"`
		}
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.RecipientID == "" {
			return
		}
		out := "userTyping"
		if frame.Event == "stopTyping" {
			out = "userStoppedTyping"
		}
		h.hub.SendToUser(data.RecipientID, out, userID)

	default:
		log.Printf("realtime: unknown event %q from session %s", frame.Event, session.ID)
	}
}
