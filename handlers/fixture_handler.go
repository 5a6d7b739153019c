package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/services"
)

type FixtureHandler struct {
	fixtureService services.FixtureService
}

func NewFixtureHandler(fs services.FixtureService) *FixtureHandler {
	return &FixtureHandler{fixtureService: fs}
}

// GenerateHandler handles POST /tournaments/{tournamentID}/fixtures/generate
func (h *FixtureHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// An empty body means "schedule every registered player".
	var input struct {
		PlayerIDs []int `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil && err.Error() != "body must not be empty" {
		badRequestResponse(w, r, err)
		return
	}

	fixtures, err := h.fixtureService.GenerateSchedule(r.Context(), tournamentID, input.PlayerIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"fixtures": fixtures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateHandler handles POST /fixtures for a single manually placed fixture.
func (h *FixtureHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TournamentID int    `json:"tournament_id"`
		HomeID       int    `json:"home_id"`
		AwayID       int    `json:"away_id"`
		MatchDate    string `json:"match_date"`
		Kickoff      string `json:"kickoff"`
		Venue        string `json:"venue"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matchDate, err := parseMatchDate(input.MatchDate)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := models.NewFixture(input.TournamentID, input.HomeID, input.AwayID, matchDate, input.Kickoff, input.Venue)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.fixtureService.CreateFixture(r.Context(), fixture); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /fixtures/{fixtureID}
func (h *FixtureHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := h.fixtureService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/fixtures
// with optional round and played query filters.
func (h *FixtureHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()

	var round *int
	if roundStr := query.Get("round"); roundStr != "" {
		n, err := strconv.Atoi(roundStr)
		if err != nil || n < 1 {
			badRequestResponse(w, r, errors.New("invalid round query parameter"))
			return
		}
		round = &n
	}

	var played *bool
	if playedStr := query.Get("played"); playedStr != "" {
		b, err := strconv.ParseBool(playedStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid played query parameter"))
			return
		}
		played = &b
	}

	fixtures, err := h.fixtureService.ListByTournament(r.Context(), tournamentID, round, played)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixtures": fixtures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByPlayerHandler handles GET /players/{playerID}/fixtures
func (h *FixtureHandler) ListByPlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixtures, err := h.fixtureService.ListByPlayer(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixtures": fixtures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RescheduleHandler handles PATCH /fixtures/{fixtureID}/schedule
func (h *FixtureHandler) RescheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		MatchDate string `json:"match_date"`
		Kickoff   string `json:"kickoff"`
		Venue     string `json:"venue"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matchDate, err := parseMatchDate(input.MatchDate)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := h.fixtureService.Reschedule(r.Context(), id, matchDate, input.Kickoff, input.Venue)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /fixtures/{fixtureID}
func (h *FixtureHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.fixtureService.DeleteFixture(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdvanceRoundHandler handles POST /tournaments/{tournamentID}/advance-round
func (h *FixtureHandler) AdvanceRoundHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixtures, err := h.fixtureService.AdvanceKnockoutRound(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"fixtures": fixtures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseMatchDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("match_date is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse("2006-01-02", value)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid match_date: expected RFC 3339 or YYYY-MM-DD, got %q", value)
	}
	return t, nil
}
