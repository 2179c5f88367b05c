package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/realtime"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ProfileLookup confirms a profile exists before a client may subscribe to it
type ProfileLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)
}

// RealtimeHandler upgrades dashboard connections and wires them to the hub
type RealtimeHandler struct {
	hub      *realtime.Hub
	profiles ProfileLookup
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewRealtimeHandler creates the WebSocket handler
// allowedOrigin "*" accepts every origin
func NewRealtimeHandler(hub *realtime.Hub, profiles ProfileLookup, allowedOrigin string, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:      hub,
		profiles: profiles,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Subscribe handles GET /ws/analytics/{profile_id}
// Tracking notifications for the profile are pushed to the client, and JSON
// messages sent by the client are relayed to the profile's other subscribers
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profile_id")
	if !ok {
		return
	}

	if _, err := h.profiles.GetByID(r.Context(), profileID); err != nil {
		respondServiceError(w, h.logger, "subscribing to live updates", err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("failed to upgrade websocket connection", "error", err, "profile_id", profileID)
		return
	}

	sub := h.hub.Subscribe(profileID)
	h.logger.Info("live subscriber connected", "profile_id", profileID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range sub.Messages() {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("live update write failed", "error", err, "profile_id", profileID)
				conn.Close()
				return
			}
		}
	}()

	defer func() {
		h.hub.Unsubscribe(sub)
		conn.Close()
		<-writerDone
		h.logger.Info("live subscriber disconnected", "profile_id", profileID)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket connection closed unexpectedly", "error", err, "profile_id", profileID)
			}
			return
		}
		if msgType != websocket.TextMessage || !json.Valid(data) {
			continue
		}
		h.hub.Broadcast(profileID, data)
	}
}
