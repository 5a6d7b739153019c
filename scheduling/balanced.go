package scheduling

import (
	"context"
	"sort"

	"github.com/nmwangi/efootball-league/models"
)

// BalancedConfig tunes the constraint packer. Zero values fall back to the
// defaults below.
type BalancedConfig struct {
	MaxPerDay   int // fixtures allowed on one calendar day
	WeeklyCap   int // fixtures per player per week
	DaysPerWeek int
}

const (
	defaultMaxPerDay   = 4
	defaultWeeklyCap   = 2
	defaultDaysPerWeek = 7
)

// BalancedGenerator is the enhanced league scheduler: it sorts all pairs by
// strength gap ascending so the closest-rated matches are placed first,
// then greedily packs them into days under per-day and weekly constraints.
// It is fully deterministic in roster order and strengths.
type BalancedGenerator struct {
	cfg BalancedConfig
}

func NewBalancedGenerator(cfg BalancedConfig) *BalancedGenerator {
	if cfg.MaxPerDay <= 0 {
		cfg.MaxPerDay = defaultMaxPerDay
	}
	if cfg.WeeklyCap <= 0 {
		cfg.WeeklyCap = defaultWeeklyCap
	}
	if cfg.DaysPerWeek <= 0 {
		cfg.DaysPerWeek = defaultDaysPerWeek
	}
	return &BalancedGenerator{cfg: cfg}
}

func (g *BalancedGenerator) Name() string {
	return "BalancedLeague"
}

type pairing struct {
	home, away *models.Player
	gap        int
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (g *BalancedGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Fixture, error) {
	roster := params.Roster
	if err := checkRoster(roster); err != nil {
		return nil, err
	}
	if len(roster) < 2 {
		return []*models.Fixture{}, nil
	}

	pairs := make([]pairing, 0, len(roster)*(len(roster)-1)/2)
	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			pairs = append(pairs, pairing{
				home: roster[i],
				away: roster[j],
				gap:  abs(roster[i].Strength - roster[j].Strength),
			})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].gap < pairs[b].gap
	})

	fixtures := make([]*models.Fixture, 0, len(pairs))
	playedOnDay := make(map[int]struct{}) // player ids on the current day
	matchesToday := 0
	dayIndex := 0
	totalByPlayer := make(map[int]int)
	scheduled := make([]bool, len(pairs))
	remaining := len(pairs)
	matchNumber := 0

	// weeklyAllowance approximates a per-player weekly cap as a cumulative
	// budget of (elapsed weeks + 1) * cap, not an exact sliding 7-day
	// window count.
	weeklyAllowance := func(dayIdx int) int {
		return (dayIdx/g.cfg.DaysPerWeek + 1) * g.cfg.WeeklyCap
	}

	place := func(idx int) error {
		p := pairs[idx]
		matchNumber++
		f, err := models.NewFixture(
			params.Tournament.ID,
			p.home.ID,
			p.away.ID,
			params.Tournament.StartDate.AddDate(0, 0, dayIndex),
			kickoffFor(params.Kickoffs, matchesToday),
			venueFor(params.Venues, dayIndex),
		)
		if err != nil {
			return err
		}
		f.Round = 1
		f.MatchNumber = matchNumber
		fixtures = append(fixtures, f)
		playedOnDay[p.home.ID] = struct{}{}
		playedOnDay[p.away.ID] = struct{}{}
		totalByPlayer[p.home.ID]++
		totalByPlayer[p.away.ID]++
		matchesToday++
		scheduled[idx] = true
		remaining--
		return nil
	}

	fits := func(idx int) bool {
		p := pairs[idx]
		if _, ok := playedOnDay[p.home.ID]; ok {
			return false
		}
		if _, ok := playedOnDay[p.away.ID]; ok {
			return false
		}
		allowance := weeklyAllowance(dayIndex)
		return totalByPlayer[p.home.ID] < allowance && totalByPlayer[p.away.ID] < allowance
	}

	nextDay := func() {
		dayIndex++
		matchesToday = 0
		playedOnDay = make(map[int]struct{})
	}

	for remaining > 0 {
		placedAny := false
		for idx := range pairs {
			if scheduled[idx] {
				continue
			}
			if matchesToday >= g.cfg.MaxPerDay {
				break
			}
			if !fits(idx) {
				continue
			}
			if err := place(idx); err != nil {
				return nil, err
			}
			placedAny = true
		}

		if remaining == 0 {
			break
		}

		if !placedAny && matchesToday == 0 {
			// Nothing fits a fresh day either: force the next unscheduled
			// pair onto it, even if suboptimal, to guarantee termination.
			for idx := range pairs {
				if !scheduled[idx] {
					if err := place(idx); err != nil {
						return nil, err
					}
					break
				}
			}
		}
		nextDay()
	}

	return fixtures, nil
}
