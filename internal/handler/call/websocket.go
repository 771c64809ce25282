package call

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	callmodel "github.com/hausly/voicedesk/internal/model/call"
	callsvc "github.com/hausly/voicedesk/internal/service/call"
)

const readDeadline = 60 * time.Second

// WebSocketHandler accepts the telephony provider's custom-LLM connections.
// Each connection is one live phone call with its own session controller.
type WebSocketHandler struct {
	deps     callsvc.Dependencies
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(deps callsvc.Dependencies) *WebSocketHandler {
	return &WebSocketHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/llm-websocket/{callID}", h.handleWebSocket)
}

// wsSender serializes writes to the connection. The controller sends from
// both the read loop and the initialization goroutine, and the ping loop
// writes too, so every write goes through this mutex.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *wsSender) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		http.Error(w, "callID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for call: %s", callID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	sender := &wsSender{conn: conn}
	controller := callsvc.NewController(callmodel.NewSession(callID), sender, h.deps)
	controller.Start(ctx)
	defer func() {
		// The request context is gone by the time teardown runs; give the
		// reporter its own window.
		reportCtx, reportCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer reportCancel()
		controller.Close(reportCtx)
	}()

	go h.pingLoop(ctx, sender)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					controller.HandleTransportError(err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(readDeadline))
			controller.HandleRaw(ctx, data)
		}
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, sender *wsSender) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sender.ping(); err != nil {
				return
			}
		}
	}
}
