package models

import "time"

// Standing is the denormalized per-player aggregate persisted for query
// convenience. It is never patched incrementally: the result service
// recomputes the whole tournament's rows from the result set inside the
// same transaction that writes a result, so standing = fold(results)
// always holds.
type Standing struct {
	ID             int       `json:"id" db:"id"`
	TournamentID   int       `json:"tournament_id" db:"tournament_id"`
	PlayerID       int       `json:"player_id" db:"player_id"`
	Played         int       `json:"played" db:"played"`
	Wins           int       `json:"wins" db:"wins"`
	Draws          int       `json:"draws" db:"draws"`
	Losses         int       `json:"losses" db:"losses"`
	GoalsFor       int       `json:"goals_for" db:"goals_for"`
	GoalsAgainst   int       `json:"goals_against" db:"goals_against"`
	GoalDifference int       `json:"goal_difference" db:"goal_difference"`
	Points         int       `json:"points" db:"points"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}
