package models

import (
	"errors"
	"time"
)

var ErrFixtureSamePlayer = errors.New("fixture home and away players must differ")

// Fixture is a scheduled, not-yet-played match between two players.
// Once Played flips to true the fixture is linked 1:1 to a Result.
type Fixture struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	HomeID       int       `json:"home_id" db:"home_id"`
	AwayID       int       `json:"away_id" db:"away_id"`
	MatchDate    time.Time `json:"match_date" db:"match_date"`
	Kickoff      string    `json:"kickoff" db:"kickoff"`
	Venue        string    `json:"venue" db:"venue"`
	Played       bool      `json:"played" db:"played"`
	Round        int       `json:"round" db:"round"`
	MatchNumber  int       `json:"match_number" db:"match_number"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Home *Player `json:"home,omitempty" db:"-"`
	Away *Player `json:"away,omitempty" db:"-"`
}

func NewFixture(tournamentID, homeID, awayID int, matchDate time.Time, kickoff, venue string) (*Fixture, error) {
	if homeID == awayID {
		return nil, ErrFixtureSamePlayer
	}
	return &Fixture{
		TournamentID: tournamentID,
		HomeID:       homeID,
		AwayID:       awayID,
		MatchDate:    matchDate,
		Kickoff:      kickoff,
		Venue:        venue,
	}, nil
}
