package scheduling

import (
	"context"

	"github.com/nmwangi/efootball-league/models"
)

// matchesPerDay is the naive pacing policy: the date cursor advances by one
// day after every two fixtures. It puts no limit on how many distinct
// players appear on a given day; the balanced generator exists for rosters
// where that matters.
const matchesPerDay = 2

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate emits a single round-robin: every unordered pair {i, j} with
// i < j in roster order plays exactly once, with i at home. A roster of
// zero or one players yields an empty schedule and no error.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Fixture, error) {
	roster := params.Roster
	if err := checkRoster(roster); err != nil {
		return nil, err
	}
	if len(roster) < 2 {
		return []*models.Fixture{}, nil
	}

	fixtures := make([]*models.Fixture, 0, len(roster)*(len(roster)-1)/2)
	matchNumber := 0
	dayIndex := 0
	slotInDay := 0

	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			matchNumber++
			f, err := models.NewFixture(
				params.Tournament.ID,
				roster[i].ID,
				roster[j].ID,
				params.Tournament.StartDate.AddDate(0, 0, dayIndex),
				kickoffFor(params.Kickoffs, slotInDay),
				venueFor(params.Venues, dayIndex),
			)
			if err != nil {
				return nil, err
			}
			f.Round = 1
			f.MatchNumber = matchNumber
			fixtures = append(fixtures, f)

			slotInDay++
			if slotInDay == matchesPerDay {
				slotInDay = 0
				dayIndex++
			}
		}
	}

	return fixtures, nil
}
