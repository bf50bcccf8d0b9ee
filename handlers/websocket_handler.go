package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Vbif322/cue-bot/events"
	"github.com/Vbif322/cue-bot/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub               *events.Hub
	tournamentService services.TournamentService
}

func NewWebSocketHandler(hub *events.Hub, tournamentService services.TournamentService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tournamentService: tournamentService}
}

// ServeTournamentWS upgrades the connection and subscribes the client to the
// tournament's event room.
func (h *WebSocketHandler) ServeTournamentWS(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if _, err := h.tournamentService.GetByID(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := events.NewClient(h.hub, conn, tournamentID)
	client.Subscribe()
}
