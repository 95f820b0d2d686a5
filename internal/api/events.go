package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type statusMessage struct {
	Type    string   `json:"type"`
	Project string   `json:"project_id,omitempty"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	At      string   `json:"at,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// handleStatusEventsWS streams status changes for one project over a
// websocket until the client disconnects.
func (s *Server) handleStatusEventsWS(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		http.Error(w, "project id required", http.StatusBadRequest)
		return
	}

	if _, err := s.reviews.GetProject(r.Context(), projectID); err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	events, cancelSub, err := s.bus.SubscribeStatus(r.Context())
	if err != nil {
		slog.Error("failed to subscribe to status events", "error", err)
		http.Error(w, "subscription failed", http.StatusInternalServerError)
		return
	}
	defer cancelSub()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("status websocket connected", "project_id", projectID)

	sendStatusMessage(conn, statusMessage{
		Type: "connected",
		Data: "subscribed to project status events",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain the client side so we notice disconnects
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("status websocket disconnected", "project_id", projectID)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.ProjectID != projectID {
				continue
			}
			if err := sendStatusMessage(conn, statusMessage{
				Type:    "status_change",
				Project: ev.ProjectID,
				From:    string(ev.From),
				To:      string(ev.To),
				Score:   ev.Score,
				At:      ev.At.UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}

func sendStatusMessage(conn *websocket.Conn, msg statusMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal status message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send status message", "error", err)
		return err
	}
	return nil
}
