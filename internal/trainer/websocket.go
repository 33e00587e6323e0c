package trainer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sparringbot/sparring/internal/identity"
)

// WebSocketHandler upgrades connections and feeds their events to the
// orchestrator. Each connection gets its own read loop goroutine, so one
// connection's events are handled strictly in arrival order while different
// connections proceed concurrently.
type WebSocketHandler struct {
	orch          *Orchestrator
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(orch *Orchestrator, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		orch:          orch,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	agentName := identity.AgentNameFromContext(r.Context())
	connID := uuid.NewString()
	slog.Info("WebSocket connection request", "conn_id", connID, "agent", agentName, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "conn_id", connID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "conn_id", connID)
		}
	}()

	// Finalization must survive request-context cancellation; the deferred
	// disconnect uses a fresh context on purpose.
	defer h.orch.Disconnect(context.Background(), connID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.readLoop(ctx, ws, connID, agentName)
	slog.Info("WebSocket connection closed", "conn_id", connID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, connID, agentName string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "conn_id", connID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "conn_id", connID)
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			h.emit(ws, connID, errorEvent("Malformed event"))
			continue
		}

		events := h.dispatch(ctx, connID, agentName, envelope)
		for _, event := range events {
			h.emit(ws, connID, event)
		}
	}
}

// dispatch routes one inbound event. A panic inside orchestration is reported
// to the connection as a generic error event instead of tearing it down.
func (h *WebSocketHandler) dispatch(ctx context.Context, connID, agentName string, envelope Envelope) (events []Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic handling session event",
				"conn_id", connID, "event", envelope.Type, "panic", rec)
			events = []Event{errorEvent("Failed to process event")}
		}
	}()

	switch envelope.Type {
	case EventStartSession:
		var req StartSessionRequest
		if err := unmarshalPayload(envelope.Payload, &req); err != nil {
			return []Event{errorEvent("Failed to start session")}
		}
		if req.AgentName == "" {
			req.AgentName = agentName
		}
		return h.orch.StartSession(ctx, connID, req)

	case EventAgentResponse:
		var req AgentResponseRequest
		if err := unmarshalPayload(envelope.Payload, &req); err != nil {
			return []Event{errorEvent("Failed to process response")}
		}
		return h.orch.AgentResponse(ctx, connID, req.Transcript)

	case EventEndSession:
		return h.orch.EndSession(ctx, connID)

	default:
		slog.Debug("ignoring unknown event", "conn_id", connID, "event", envelope.Type)
		return nil
	}
}

func (h *WebSocketHandler) emit(ws *websocket.Conn, connID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal outbound event", "conn_id", connID, "event", event.Type, "error", err)
		return
	}
	if err := ws.Write(context.Background(), websocket.MessageText, data); err != nil {
		slog.Debug("failed to write outbound event", "conn_id", connID, "event", event.Type, "error", err)
	}
}

func unmarshalPayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
