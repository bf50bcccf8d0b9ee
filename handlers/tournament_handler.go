package handlers

import (
	"net/http"

	"github.com/Vbif322/cue-bot/models"
	"github.com/Vbif322/cue-bot/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(tournamentService services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.TournamentStatus(raw)
		status = &s
	}

	tournaments, err := h.tournamentService.List(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) GetFullTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.GetFullTournamentData(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.tournamentService.Delete(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "tournament deleted"})
}

type registerParticipantRequest struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

func (h *TournamentHandler) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req registerParticipantRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	participant, err := h.tournamentService.RegisterParticipant(r.Context(), tournamentID, req.UserID, req.DisplayName)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant})
}

func (h *TournamentHandler) StartTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.Start(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) CancelTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.tournamentService.Cancel(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "tournament cancelled"})
}

func (h *TournamentHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	progress, err := h.tournamentService.Progress(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"progress": progress})
}

func (h *TournamentHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	standings, err := h.tournamentService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"standings": standings})
}
