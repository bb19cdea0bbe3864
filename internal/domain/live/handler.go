package live

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/graph"
	"github.com/hridesh-bharati/jibzo-sub000/internal/middleware"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/response"
)

var snapshotsDroppedTotal = expvar.NewInt("live_snapshots_dropped_total")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens before the upgrade; origin policy is the CORS
		// layer's job for the REST surface.
		return true
	},
}

// Handler serves the WebSocket subscription endpoint.
type Handler struct {
	hub *Hub
}

// NewHandler creates live handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Routes returns the live router, mounted under /ws
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/relations", h.Serve)
	return r
}

// Serve handles GET /ws/relations. The client receives its current
// relation snapshot on connect and the full snapshot again on every
// change until it disconnects.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	uid := middleware.GetUserID(r.Context())
	if uid == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("WebSocket upgrade failed")
		return
	}

	send := make(chan []byte, sendBuffer)
	unsubscribe, err := h.hub.Subscribe(uid, func(list *graph.RelationList) {
		data, err := json.Marshal(list)
		if err != nil {
			return
		}
		select {
		case send <- data:
		default:
			// Client is not draining; it gets the next snapshot instead.
			snapshotsDroppedTotal.Add(1)
		}
	})
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("Subscription failed")
		conn.Close()
		return
	}

	go h.writePump(conn, send)
	go h.readPump(conn, unsubscribe, uid)
}

func (h *Handler) writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the subscription protocol is
// one-way. It exists to process control frames and detect disconnect.
func (h *Handler) readPump(conn *websocket.Conn, unsubscribe func(), uid string) {
	defer func() {
		// The send channel stays open: a push already in flight may
		// still write to it, and writePump exits on its next write or
		// ping against the closed connection.
		unsubscribe()
		conn.Close()
		log.Debug().Str("uid", uid).Msg("Relation subscriber disconnected")
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
