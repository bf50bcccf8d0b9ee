package handlers

import (
	"net/http"

	"github.com/Vbif322/cue-bot/brackets"
	"github.com/Vbif322/cue-bot/models"
	"github.com/Vbif322/cue-bot/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Get(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) ListTournamentMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var round *int
	if raw := r.URL.Query().Get("round"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			badRequestResponse(w, err)
			return
		}
		round = &parsed
	}

	var status *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.MatchStatus(raw)
		status = &s
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, round, status)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	brackets.AnnotateRoundNames(matches)

	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches})
}

func (h *MatchHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Start(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

type reportResultRequest struct {
	ReporterID   int64 `json:"reporter_id"`
	Player1Score int   `json:"player1_score"`
	Player2Score int   `json:"player2_score"`
}

func (h *MatchHandler) ReportResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req reportResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Report(r.Context(), matchID, req.ReporterID, req.Player1Score, req.Player2Score)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

type confirmResultRequest struct {
	ConfirmerID int64 `json:"confirmer_id"`
}

func (h *MatchHandler) ConfirmResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req confirmResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Confirm(r.Context(), matchID, req.ConfirmerID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

type disputeResultRequest struct {
	DisputerID int64 `json:"disputer_id"`
}

func (h *MatchHandler) DisputeResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req disputeResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Dispute(r.Context(), matchID, req.DisputerID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

type technicalResultRequest struct {
	WinnerID      int64  `json:"winner_id"`
	Reason        string `json:"reason"`
	AdjudicatorID int64  `json:"adjudicator_id"`
}

func (h *MatchHandler) SetTechnicalResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req technicalResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.SetTechnicalResult(r.Context(), matchID, req.WinnerID, req.Reason, req.AdjudicatorID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}
