package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vbif322/cue-bot/brackets"
	"github.com/Vbif322/cue-bot/repositories"
	"github.com/Vbif322/cue-bot/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func getIDFromURL(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", param)
	}
	return id, nil
}

func parsePositiveInt(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid query parameter %q", raw)
	}
	return v, nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	slog.Error("internal server error", slog.Any("error", err))
	errorResponse(w, http.StatusInternalServerError,
		"the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter) {
	errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusConflict, message)
}

// mapServiceErrorToHTTP translates the service error taxonomy into HTTP
// statuses.
func mapServiceErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrTournamentNotFound):
		notFoundResponse(w)

	case errors.Is(err, services.ErrInvalidMatchState),
		errors.Is(err, services.ErrTournamentAlreadyStarted),
		errors.Is(err, services.ErrTournamentNotActive),
		errors.Is(err, services.ErrTournamentFull),
		errors.Is(err, repositories.ErrParticipantConflict):
		conflictResponse(w, err.Error())

	case errors.Is(err, services.ErrInvalidScore),
		errors.Is(err, services.ErrInvalidTournamentConfig),
		errors.Is(err, services.ErrSeedingFailed),
		errors.Is(err, brackets.ErrInsufficientParticipants),
		errors.Is(err, brackets.ErrUnsupportedParticipantCount):
		badRequestResponse(w, err)

	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrSelfConfirmation),
		errors.Is(err, services.ErrRegistrationNotOpen):
		errorResponse(w, http.StatusForbidden, err.Error())

	default:
		serverErrorResponse(w, err)
	}
}
