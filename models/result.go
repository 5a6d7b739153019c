package models

import (
	"errors"
	"time"
)

var (
	ErrResultNegativeScore = errors.New("result scores must not be negative")
	ErrResultSamePlayer    = errors.New("result home and away players must differ")
)

// Result is the recorded outcome of a played fixture. Home/away player ids
// are inherited from the fixture that the result completes.
type Result struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	FixtureID    int       `json:"fixture_id" db:"fixture_id"`
	HomeID       int       `json:"home_id" db:"home_id"`
	AwayID       int       `json:"away_id" db:"away_id"`
	HomeScore    int       `json:"home_score" db:"home_score"`
	AwayScore    int       `json:"away_score" db:"away_score"`
	PlayedAt     time.Time `json:"played_at" db:"played_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func NewResult(tournamentID, fixtureID, homeID, awayID, homeScore, awayScore int, playedAt time.Time) (*Result, error) {
	if homeID == awayID {
		return nil, ErrResultSamePlayer
	}
	if homeScore < 0 || awayScore < 0 {
		return nil, ErrResultNegativeScore
	}
	return &Result{
		TournamentID: tournamentID,
		FixtureID:    fixtureID,
		HomeID:       homeID,
		AwayID:       awayID,
		HomeScore:    homeScore,
		AwayScore:    awayScore,
		PlayedAt:     playedAt,
	}, nil
}
