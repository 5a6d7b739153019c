package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nmwangi/efootball-league/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// TableHandler handles GET /tournaments/{tournamentID}/standings
func (h *StandingsHandler) TableHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.standingsService.Table(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FormHandler handles GET /tournaments/{tournamentID}/players/{playerID}/form
// and returns the recent form string, most recent match first, e.g. "WWDLW".
func (h *StandingsHandler) FormHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	length := 5
	if lengthStr := r.URL.Query().Get("length"); lengthStr != "" {
		n, err := strconv.Atoi(lengthStr)
		if err != nil || n < 1 {
			badRequestResponse(w, r, errors.New("invalid length query parameter"))
			return
		}
		length = n
	}

	form, err := h.standingsService.Form(r.Context(), tournamentID, playerID, length)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"form": form}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// HeadToHeadHandler handles GET /tournaments/{tournamentID}/head-to-head?a=1&b=2
func (h *StandingsHandler) HeadToHeadHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()
	aID, err := strconv.Atoi(query.Get("a"))
	if err != nil || aID < 1 {
		badRequestResponse(w, r, errors.New("invalid or missing a query parameter"))
		return
	}
	bID, err := strconv.Atoi(query.Get("b"))
	if err != nil || bID < 1 {
		badRequestResponse(w, r, errors.New("invalid or missing b query parameter"))
		return
	}
	if aID == bID {
		badRequestResponse(w, r, errors.New("a and b must reference different players"))
		return
	}

	h2h, err := h.standingsService.HeadToHead(r.Context(), tournamentID, aID, bID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"head_to_head": h2h}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
