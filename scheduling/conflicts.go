package scheduling

import (
	"sort"
	"time"

	"github.com/nmwangi/efootball-league/models"
)

type ConflictType string

const (
	PlayerConflict ConflictType = "PLAYER_CONFLICT"
	VenueConflict  ConflictType = "VENUE_CONFLICT"
)

// Conflict names a scheduling collision: a player booked twice on one
// date, or a venue double-booked at the same date and kickoff.
type Conflict struct {
	Type       ConflictType `json:"type"`
	Date       time.Time    `json:"date"`
	PlayerID   int          `json:"player_id,omitempty"`
	Venue      string       `json:"venue,omitempty"`
	Kickoff    string       `json:"kickoff,omitempty"`
	FixtureIDs []int        `json:"fixture_ids"`
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DetectConflicts scans fixtures grouped by date and flags players
// appearing in more than one fixture on the same date, and venues booked
// for more than one fixture at the same date and kickoff. Callers run it
// before committing a manual reschedule.
func DetectConflicts(fixtures []*models.Fixture) []Conflict {
	byDate := make(map[string][]*models.Fixture)
	for _, f := range fixtures {
		k := dateKey(f.MatchDate)
		byDate[k] = append(byDate[k], f)
	}

	dates := make([]string, 0, len(byDate))
	for k := range byDate {
		dates = append(dates, k)
	}
	sort.Strings(dates)

	conflicts := make([]Conflict, 0)
	for _, dk := range dates {
		day := byDate[dk]

		playerFixtures := make(map[int][]int)
		for _, f := range day {
			playerFixtures[f.HomeID] = append(playerFixtures[f.HomeID], f.ID)
			playerFixtures[f.AwayID] = append(playerFixtures[f.AwayID], f.ID)
		}
		playerIDs := make([]int, 0, len(playerFixtures))
		for id := range playerFixtures {
			playerIDs = append(playerIDs, id)
		}
		sort.Ints(playerIDs)
		for _, id := range playerIDs {
			if ids := playerFixtures[id]; len(ids) > 1 {
				conflicts = append(conflicts, Conflict{
					Type:       PlayerConflict,
					Date:       day[0].MatchDate,
					PlayerID:   id,
					FixtureIDs: ids,
				})
			}
		}

		type slot struct {
			venue, kickoff string
		}
		venueFixtures := make(map[slot][]int)
		slotOrder := make([]slot, 0)
		for _, f := range day {
			s := slot{f.Venue, f.Kickoff}
			if _, ok := venueFixtures[s]; !ok {
				slotOrder = append(slotOrder, s)
			}
			venueFixtures[s] = append(venueFixtures[s], f.ID)
		}
		for _, s := range slotOrder {
			if ids := venueFixtures[s]; len(ids) > 1 {
				conflicts = append(conflicts, Conflict{
					Type:       VenueConflict,
					Date:       day[0].MatchDate,
					Venue:      s.venue,
					Kickoff:    s.kickoff,
					FixtureIDs: ids,
				})
			}
		}
	}

	return conflicts
}

// TouchesFixture reports whether the conflict involves the given fixture.
func (c Conflict) TouchesFixture(id int) bool {
	for _, fid := range c.FixtureIDs {
		if fid == id {
			return true
		}
	}
	return false
}
