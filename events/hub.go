package events

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Vbif322/cue-bot/models"
)

const (
	EventBracketGenerated    = "bracket_generated"
	EventMatchUpdated        = "match_updated"
	EventMatchReady          = "match_ready"
	EventTournamentCompleted = "tournament_completed"
)

// Event is one advisory message delivered to the subscribers of a
// tournament room. The core never depends on delivery.
type Event struct {
	Type         string      `json:"type"`
	TournamentID int         `json:"tournament_id"`
	Payload      interface{} `json:"payload,omitempty"`
}

type completedPayload struct {
	ChampionID int64 `json:"champion_id"`
}

// Hub fans events out to websocket clients grouped into per-tournament
// rooms. It satisfies the services Notifier contract.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	rooms  map[int]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.tournamentID] == nil {
				h.rooms[client.tournamentID] = make(map[*Client]bool)
			}
			h.rooms[client.tournamentID][client] = true
			h.mu.Unlock()
			h.logger.Debug("event client joined",
				slog.Int("tournament_id", client.tournamentID))

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.tournamentID]; ok && room[client] {
				delete(room, client)
				client.closeSend()
				if len(room) == 0 {
					delete(h.rooms, client.tournamentID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("event client left",
				slog.Int("tournament_id", client.tournamentID))
		}
	}
}

func (h *Hub) BracketGenerated(tournamentID int, matches []*models.Match) {
	h.publish(Event{Type: EventBracketGenerated, TournamentID: tournamentID, Payload: matches})
}

func (h *Hub) MatchUpdated(tournamentID int, match *models.Match) {
	h.publish(Event{Type: EventMatchUpdated, TournamentID: tournamentID, Payload: match})
}

// MatchReady signals that both slots of a match are filled and it can be
// started.
func (h *Hub) MatchReady(tournamentID int, match *models.Match) {
	h.publish(Event{Type: EventMatchReady, TournamentID: tournamentID, Payload: match})
}

func (h *Hub) TournamentCompleted(tournamentID int, championID int64) {
	h.publish(Event{
		Type:         EventTournamentCompleted,
		TournamentID: tournamentID,
		Payload:      completedPayload{ChampionID: championID},
	})
}

func (h *Hub) publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event",
			slog.String("type", event.Type), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[event.TournamentID] {
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the event for this client.
			h.logger.Warn("event dropped for slow client",
				slog.Int("tournament_id", event.TournamentID),
				slog.String("type", event.Type))
		}
	}
}
