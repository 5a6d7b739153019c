package scheduling

import (
	"context"
	"errors"

	"github.com/nmwangi/efootball-league/models"
)

var (
	ErrInsufficientPlayers = errors.New("not enough players to generate a schedule")
	ErrDuplicatePlayer     = errors.New("roster contains duplicate player ids")
)

// DefaultVenues is the venue rotation used when a tournament has no venue
// list of its own.
var DefaultVenues = []string{"Main Hall", "Gaming Lounge", "Community Centre"}

// DefaultKickoffs are the time slots cycled through within a match day.
var DefaultKickoffs = []string{"10:00", "12:00", "14:00", "16:00"}

type GenerateParams struct {
	Tournament *models.Tournament
	Roster     []*models.Player
	Venues     []string
	Kickoffs   []string
}

// Generator produces a complete schedule of fixtures for a roster. All
// generators are pure: they touch no storage and are safe for concurrent
// use.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*models.Fixture, error)

	Name() string
}

func checkRoster(roster []*models.Player) error {
	seen := make(map[int]struct{}, len(roster))
	for _, p := range roster {
		if _, ok := seen[p.ID]; ok {
			return ErrDuplicatePlayer
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func venueFor(venues []string, dayIndex int) string {
	if len(venues) == 0 {
		venues = DefaultVenues
	}
	return venues[dayIndex%len(venues)]
}

func kickoffFor(kickoffs []string, slotIndex int) string {
	if len(kickoffs) == 0 {
		kickoffs = DefaultKickoffs
	}
	return kickoffs[slotIndex%len(kickoffs)]
}
