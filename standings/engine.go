// Package standings derives the league table from the recorded result
// set. Everything here is a pure function: calling it twice on the same
// inputs yields identical output, which is what lets the persisted
// standings copy be rebuilt from results at any time without drift.
package standings

import (
	"sort"

	"github.com/nmwangi/efootball-league/models"
)

// Row is one line of the league table.
type Row struct {
	PlayerID       int    `json:"player_id"`
	PlayerName     string `json:"player_name"`
	TeamName       string `json:"team_name"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}

const (
	pointsWin  = 3
	pointsDraw = 1
)

// Compute folds the result set into one row per player and sorts the
// table descending by points, then goal difference, then goals for.
// Ties beyond those three keys keep roster order; that is specified
// behavior, not an accident of the sort.
func Compute(players []*models.Player, results []*models.Result) []Row {
	rows := make([]Row, len(players))
	index := make(map[int]*Row, len(players))
	for i, p := range players {
		rows[i] = Row{PlayerID: p.ID, PlayerName: p.Name, TeamName: p.TeamName}
		index[p.ID] = &rows[i]
	}

	for _, res := range results {
		apply(index, res.HomeID, res.HomeScore, res.AwayScore)
		apply(index, res.AwayID, res.AwayScore, res.HomeScore)
	}

	// Recomputed from the totals rather than accumulated per result, so
	// the invariant GD == GF - GA holds exactly for every input.
	for i := range rows {
		rows[i].GoalDifference = rows[i].GoalsFor - rows[i].GoalsAgainst
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].GoalDifference != rows[j].GoalDifference {
			return rows[i].GoalDifference > rows[j].GoalDifference
		}
		return rows[i].GoalsFor > rows[j].GoalsFor
	})

	return rows
}

// apply folds one side of a result into that player's row. Results naming
// a player outside the roster are skipped; the caller decides whether that
// is worth surfacing.
func apply(index map[int]*Row, playerID, own, opponent int) {
	row, ok := index[playerID]
	if !ok {
		return
	}
	row.Played++
	row.GoalsFor += own
	row.GoalsAgainst += opponent
	switch {
	case own > opponent:
		row.Wins++
		row.Points += pointsWin
	case own == opponent:
		row.Draws++
		row.Points += pointsDraw
	default:
		row.Losses++
	}
}
