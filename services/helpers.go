package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/repositories"
	"github.com/nmwangi/efootball-league/standings"
	"github.com/nmwangi/efootball-league/storage"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateTournamentDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: tournament dates are required", ErrValidationFailed)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start date (%s) must be before end date (%s)", ErrTournamentInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusSoon:         {models.StatusRegistration, models.StatusCanceled},
		models.StatusRegistration: {models.StatusActive, models.StatusCanceled},
		models.StatusActive:       {models.StatusCompleted, models.StatusCanceled},
		models.StatusCompleted:    {},
		models.StatusCanceled:     {},
	}
	for _, allowedNext := range allowedTransitions[current] {
		if next == allowedNext {
			return true
		}
	}
	return false
}

func populatePlayerPhotoURL(player *models.Player, uploader storage.FileUploader) {
	if player != nil && player.PhotoKey != nil && *player.PhotoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*player.PhotoKey)
		if url != "" {
			player.PhotoURL = &url
		}
	}
}

func populatePlayerListPhotoURLs(players []*models.Player, uploader storage.FileUploader) {
	if uploader == nil {
		return
	}
	for _, p := range players {
		populatePlayerPhotoURL(p, uploader)
	}
}

func standingsFromRows(tournamentID int, rows []standings.Row) []*models.Standing {
	out := make([]*models.Standing, len(rows))
	now := time.Now()
	for i, row := range rows {
		out[i] = &models.Standing{
			TournamentID:   tournamentID,
			PlayerID:       row.PlayerID,
			Played:         row.Played,
			Wins:           row.Wins,
			Draws:          row.Draws,
			Losses:         row.Losses,
			GoalsFor:       row.GoalsFor,
			GoalsAgainst:   row.GoalsAgainst,
			GoalDifference: row.GoalDifference,
			Points:         row.Points,
			UpdatedAt:      now,
		}
	}
	return out
}

// rosterIDs resolves the league membership: everyone with a standings
// row, plus anyone who appears in a result without one. Ids come back
// sorted, which is also the tie-break order the table computation
// preserves.
func rosterIDs(rows []*models.Standing, results []*models.Result) []int {
	seen := make(map[int]struct{}, len(rows))
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.PlayerID]; !ok {
			seen[row.PlayerID] = struct{}{}
			ids = append(ids, row.PlayerID)
		}
	}
	for _, res := range results {
		for _, id := range []int{res.HomeID, res.AwayID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	return ids
}

func rosterForTournament(
	ctx context.Context,
	tournamentID int,
	standingRepo repositories.StandingRepository,
	playerRepo repositories.PlayerRepository,
	results []*models.Result,
) ([]*models.Player, error) {
	rows, err := standingRepo.ListByTournament(ctx, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for tournament %d: %w", tournamentID, err)
	}
	players, err := playerRepo.ListByIDs(ctx, rosterIDs(rows, results))
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for tournament %d: %w", tournamentID, err)
	}
	return players, nil
}

// recomputeStandings rebuilds the denormalized table from the full result
// set inside the caller's transaction. The standings rows are never
// patched in place; they are always the fold of the results.
func recomputeStandings(
	ctx context.Context,
	exec repositories.SQLExecutor,
	tournamentID int,
	playerRepo repositories.PlayerRepository,
	resultRepo repositories.ResultRepository,
	standingRepo repositories.StandingRepository,
) ([]standings.Row, error) {
	results, err := resultRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for tournament %d: %w", tournamentID, err)
	}
	roster, err := rosterForTournament(ctx, tournamentID, standingRepo, playerRepo, results)
	if err != nil {
		return nil, err
	}
	rows := standings.Compute(roster, results)
	if err := standingRepo.ReplaceForTournament(ctx, exec, tournamentID, standingsFromRows(tournamentID, rows)); err != nil {
		return nil, fmt.Errorf("failed to rewrite standings for tournament %d: %w", tournamentID, err)
	}
	return rows, nil
}

func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			ext := "." + strings.Split(parts[1], "+")[0]
			return ext, nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
