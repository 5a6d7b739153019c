package scheduling

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/nmwangi/efootball-league/models"
)

// KnockoutGenerator pairs a shuffled roster for round one of a single
// elimination competition. Later rounds are advanced by an explicit admin
// action once results are in; this generator never produces them.
type KnockoutGenerator struct {
	rng *rand.Rand
}

// NewKnockoutGenerator takes the random source used for the draw so tests
// can seed it deterministically. A nil source falls back to the package
// global.
func NewKnockoutGenerator(rng *rand.Rand) *KnockoutGenerator {
	return &KnockoutGenerator{rng: rng}
}

func (g *KnockoutGenerator) Name() string {
	return "Knockout"
}

// Generate shuffles the roster uniformly and pairs consecutive entries as
// home/away. An odd player out receives a bye: no fixture is emitted for
// them and they simply sit out round one pairing.
func (g *KnockoutGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Fixture, error) {
	roster := params.Roster
	if err := checkRoster(roster); err != nil {
		return nil, err
	}
	if len(roster) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, found %d", ErrInsufficientPlayers, len(roster))
	}

	drawn := make([]*models.Player, len(roster))
	copy(drawn, roster)
	shuffle := rand.Shuffle
	if g.rng != nil {
		shuffle = g.rng.Shuffle
	}
	shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})

	fixtures := make([]*models.Fixture, 0, len(drawn)/2)
	dayIndex := 0
	slotInDay := 0

	for k := 0; k+1 < len(drawn); k += 2 {
		f, err := models.NewFixture(
			params.Tournament.ID,
			drawn[k].ID,
			drawn[k+1].ID,
			params.Tournament.StartDate.AddDate(0, 0, dayIndex),
			kickoffFor(params.Kickoffs, slotInDay),
			venueFor(params.Venues, dayIndex),
		)
		if err != nil {
			return nil, err
		}
		f.Round = 1
		f.MatchNumber = len(fixtures) + 1
		fixtures = append(fixtures, f)

		slotInDay++
		if slotInDay == matchesPerDay {
			slotInDay = 0
			dayIndex++
		}
	}

	return fixtures, nil
}

// PairWinners builds the next knockout round from the winners of the
// previous one, kept in bracket order. An odd winner out gets a bye into
// the round after. Used by the fixture service's advance-round action.
func PairWinners(tournamentID int, winners []*models.Player, round int, startDate time.Time, venues, kickoffs []string) ([]*models.Fixture, error) {
	if len(winners) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 winners to pair round %d", ErrInsufficientPlayers, round)
	}

	fixtures := make([]*models.Fixture, 0, len(winners)/2)
	dayIndex := 0
	slotInDay := 0

	for k := 0; k+1 < len(winners); k += 2 {
		f, err := models.NewFixture(
			tournamentID,
			winners[k].ID,
			winners[k+1].ID,
			startDate.AddDate(0, 0, dayIndex),
			kickoffFor(kickoffs, slotInDay),
			venueFor(venues, dayIndex),
		)
		if err != nil {
			return nil, err
		}
		f.Round = round
		f.MatchNumber = len(fixtures) + 1
		fixtures = append(fixtures, f)

		slotInDay++
		if slotInDay == matchesPerDay {
			slotInDay = 0
			dayIndex++
		}
	}

	return fixtures, nil
}
