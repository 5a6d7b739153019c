package standings

import (
	"sort"

	"github.com/nmwangi/efootball-league/models"
)

// DefaultFormLength is how many recent results feed the form guide.
const DefaultFormLength = 5

type Outcome byte

const (
	Win  Outcome = 'W'
	Draw Outcome = 'D'
	Loss Outcome = 'L'
)

// FormGuide returns the player's last n outcomes in chronological order,
// each from that player's perspective. Display only; never part of the
// table sort.
func FormGuide(playerID int, results []*models.Result, n int) []Outcome {
	if n <= 0 {
		n = DefaultFormLength
	}

	mine := make([]*models.Result, 0)
	for _, r := range results {
		if r.HomeID == playerID || r.AwayID == playerID {
			mine = append(mine, r)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].PlayedAt.Before(mine[j].PlayedAt)
	})
	if len(mine) > n {
		mine = mine[len(mine)-n:]
	}

	form := make([]Outcome, 0, len(mine))
	for _, r := range mine {
		own, opp := r.HomeScore, r.AwayScore
		if r.AwayID == playerID {
			own, opp = opp, own
		}
		switch {
		case own > opp:
			form = append(form, Win)
		case own == opp:
			form = append(form, Draw)
		default:
			form = append(form, Loss)
		}
	}
	return form
}

// FormString renders a form guide as e.g. "WWDLW".
func FormString(form []Outcome) string {
	b := make([]byte, len(form))
	for i, o := range form {
		b[i] = byte(o)
	}
	return string(b)
}

// HeadToHead tallies the mutual results between two players, in either
// home/away orientation.
type HeadToHead struct {
	PlayerAID int `json:"player_a_id"`
	PlayerBID int `json:"player_b_id"`
	Played    int `json:"played"`
	AWins     int `json:"a_wins"`
	BWins     int `json:"b_wins"`
	Draws     int `json:"draws"`
}

func ComputeHeadToHead(aID, bID int, results []*models.Result) HeadToHead {
	h2h := HeadToHead{PlayerAID: aID, PlayerBID: bID}
	for _, r := range results {
		if !(r.HomeID == aID && r.AwayID == bID) && !(r.HomeID == bID && r.AwayID == aID) {
			continue
		}
		h2h.Played++
		aScore, bScore := r.HomeScore, r.AwayScore
		if r.HomeID == bID {
			aScore, bScore = bScore, aScore
		}
		switch {
		case aScore > bScore:
			h2h.AWins++
		case bScore > aScore:
			h2h.BWins++
		default:
			h2h.Draws++
		}
	}
	return h2h
}
