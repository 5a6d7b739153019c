package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/scheduling"
)

func newTestFixtureService(
	tournaments *fakeTournamentRepo,
	players *fakePlayerRepo,
	fixtures *fakeFixtureRepo,
	results *fakeResultRepo,
	standings *fakeStandingRepo,
) FixtureService {
	knockout := scheduling.NewKnockoutGenerator(rand.New(rand.NewSource(42)))
	return NewFixtureService(newFakeDB(), tournaments, players, fixtures, results, standings, knockout, nil, nil, testLogger())
}

func leagueTournament(id int, format models.TournamentFormat) *models.Tournament {
	start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	return &models.Tournament{
		ID:        id,
		Name:      "Estate League",
		Format:    format,
		Status:    models.StatusActive,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
	}
}

func TestGenerateSchedulePersistsFixturesAndSeedsTable(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(7, models.FormatLeague))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice", Strength: 80},
		&models.Player{ID: 2, Name: "Brian", Strength: 75},
		&models.Player{ID: 3, Name: "Cynthia", Strength: 78},
		&models.Player{ID: 4, Name: "David", Strength: 70},
	)
	fixtures := &fakeFixtureRepo{}
	standings := &fakeStandingRepo{}
	svc := newTestFixtureService(tournaments, players, fixtures, &fakeResultRepo{}, standings)
	ctx := context.Background()

	generated, err := svc.GenerateSchedule(ctx, 7, nil)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if len(generated) != 6 {
		t.Errorf("generated %d fixtures for 4 players, want 6", len(generated))
	}

	rows, err := standings.ListByTournament(ctx, 7, false)
	if err != nil {
		t.Fatalf("ListByTournament: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("seeded %d standings rows, want 4", len(rows))
	}
	for _, row := range rows {
		if row.Points != 0 || row.Played != 0 {
			t.Errorf("player %d row not zero: %+v", row.PlayerID, row)
		}
	}

	if _, err := svc.GenerateSchedule(ctx, 7, nil); !errors.Is(err, ErrTournamentHasFixtures) {
		t.Errorf("second GenerateSchedule error = %v, want ErrTournamentHasFixtures", err)
	}
}

func TestGenerateScheduleUnknownFormat(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(7, models.TournamentFormat("swiss")))
	players := newFakePlayerRepo(&models.Player{ID: 1, Name: "Alice"}, &models.Player{ID: 2, Name: "Brian"})
	svc := newTestFixtureService(tournaments, players, &fakeFixtureRepo{}, &fakeResultRepo{}, &fakeStandingRepo{})

	if _, err := svc.GenerateSchedule(context.Background(), 7, nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("GenerateSchedule error = %v, want ErrUnknownFormat", err)
	}
}

func TestRescheduleRejectsPlayerDoubleBooking(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(7, models.FormatLeague))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice"},
		&models.Player{ID: 2, Name: "Brian"},
		&models.Player{ID: 3, Name: "Cynthia"},
	)
	fixtures := &fakeFixtureRepo{}
	ctx := context.Background()

	apr6 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	f1, _ := models.NewFixture(7, 1, 2, apr6, "10:00", "Main Hall")
	f2, _ := models.NewFixture(7, 1, 3, apr6.AddDate(0, 0, 1), "12:00", "Gaming Lounge")
	for _, f := range []*models.Fixture{f1, f2} {
		if err := fixtures.Create(ctx, nil, f); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}

	svc := newTestFixtureService(tournaments, players, fixtures, &fakeResultRepo{}, &fakeStandingRepo{})

	// Moving f2 onto Apr 6 puts Alice in two fixtures on one date.
	if _, err := svc.Reschedule(ctx, f2.ID, apr6, "", ""); !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("Reschedule error = %v, want ErrScheduleConflict", err)
	}

	// The slot must be untouched after the rejection.
	kept, err := fixtures.GetByID(ctx, f2.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !kept.MatchDate.Equal(apr6.AddDate(0, 0, 1)) {
		t.Errorf("fixture date changed to %v after rejected reschedule", kept.MatchDate)
	}
}

func TestRescheduleRejectsVenueDoubleBooking(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(7, models.FormatLeague))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice"},
		&models.Player{ID: 2, Name: "Brian"},
		&models.Player{ID: 3, Name: "Cynthia"},
		&models.Player{ID: 4, Name: "David"},
	)
	fixtures := &fakeFixtureRepo{}
	ctx := context.Background()

	apr6 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	f1, _ := models.NewFixture(7, 1, 2, apr6, "10:00", "Main Hall")
	f2, _ := models.NewFixture(7, 3, 4, apr6.AddDate(0, 0, 1), "10:00", "Main Hall")
	for _, f := range []*models.Fixture{f1, f2} {
		if err := fixtures.Create(ctx, nil, f); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}

	svc := newTestFixtureService(tournaments, players, fixtures, &fakeResultRepo{}, &fakeStandingRepo{})

	if _, err := svc.Reschedule(ctx, f2.ID, apr6, "", ""); !errors.Is(err, ErrScheduleConflict) {
		t.Errorf("Reschedule error = %v, want ErrScheduleConflict", err)
	}

	// A different kickoff at the same venue and date is fine.
	moved, err := svc.Reschedule(ctx, f2.ID, apr6, "14:00", "")
	if err != nil {
		t.Fatalf("clean Reschedule: %v", err)
	}
	if !moved.MatchDate.Equal(apr6) || moved.Kickoff != "14:00" {
		t.Errorf("moved fixture = %v %s, want Apr 6 14:00", moved.MatchDate, moved.Kickoff)
	}
}

func TestRescheduleRejectsPlayedFixture(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(7, models.FormatLeague))
	players := newFakePlayerRepo(&models.Player{ID: 1, Name: "Alice"}, &models.Player{ID: 2, Name: "Brian"})
	fixtures := &fakeFixtureRepo{}
	ctx := context.Background()

	apr6 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	f, _ := models.NewFixture(7, 1, 2, apr6, "10:00", "Main Hall")
	f.Played = true
	if err := fixtures.Create(ctx, nil, f); err != nil {
		t.Fatalf("seed fixture: %v", err)
	}

	svc := newTestFixtureService(tournaments, players, fixtures, &fakeResultRepo{}, &fakeStandingRepo{})
	if _, err := svc.Reschedule(ctx, f.ID, apr6.AddDate(0, 0, 2), "", ""); !errors.Is(err, ErrFixtureAlreadyPlayed) {
		t.Errorf("Reschedule error = %v, want ErrFixtureAlreadyPlayed", err)
	}
}

func TestAdvanceKnockoutRoundPairsWinnersInBracketOrder(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(9, models.FormatKnockout))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice"},
		&models.Player{ID: 2, Name: "Brian"},
		&models.Player{ID: 3, Name: "Cynthia"},
		&models.Player{ID: 4, Name: "David"},
	)
	fixtures := &fakeFixtureRepo{}
	results := &fakeResultRepo{}
	standings := &fakeStandingRepo{}
	svc := newTestFixtureService(tournaments, players, fixtures, results, standings)
	ctx := context.Background()

	round1, err := svc.GenerateSchedule(ctx, 9, nil)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if len(round1) != 2 {
		t.Fatalf("round 1 fixtures = %d, want 2", len(round1))
	}

	// Home side wins both round 1 fixtures.
	for _, f := range round1 {
		res, resErr := models.NewResult(9, f.ID, f.HomeID, f.AwayID, 2, 0, f.MatchDate)
		if resErr != nil {
			t.Fatalf("NewResult: %v", resErr)
		}
		if err := results.Create(ctx, nil, res); err != nil {
			t.Fatalf("seed result: %v", err)
		}
		if err := fixtures.SetPlayed(ctx, nil, f.ID, true); err != nil {
			t.Fatalf("SetPlayed: %v", err)
		}
	}

	round2, err := svc.AdvanceKnockoutRound(ctx, 9)
	if err != nil {
		t.Fatalf("AdvanceKnockoutRound: %v", err)
	}
	if len(round2) != 1 {
		t.Fatalf("round 2 fixtures = %d, want 1", len(round2))
	}
	final := round2[0]
	if final.Round != 2 {
		t.Errorf("round = %d, want 2", final.Round)
	}
	if final.HomeID != round1[0].HomeID || final.AwayID != round1[1].HomeID {
		t.Errorf("final pairs (%d,%d), want winners in bracket order (%d,%d)",
			final.HomeID, final.AwayID, round1[0].HomeID, round1[1].HomeID)
	}
}

func TestAdvanceKnockoutRoundRefusesWithUnplayedFixtures(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(9, models.FormatKnockout))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice"},
		&models.Player{ID: 2, Name: "Brian"},
		&models.Player{ID: 3, Name: "Cynthia"},
		&models.Player{ID: 4, Name: "David"},
	)
	fixtures := &fakeFixtureRepo{}
	svc := newTestFixtureService(tournaments, players, fixtures, &fakeResultRepo{}, &fakeStandingRepo{})
	ctx := context.Background()

	if _, err := svc.GenerateSchedule(ctx, 9, nil); err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if _, err := svc.AdvanceKnockoutRound(ctx, 9); !errors.Is(err, ErrRoundNotComplete) {
		t.Errorf("AdvanceKnockoutRound error = %v, want ErrRoundNotComplete", err)
	}
}

func TestAdvanceKnockoutRoundCompletesTournament(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(9, models.FormatKnockout))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice"},
		&models.Player{ID: 2, Name: "Brian"},
	)
	fixtures := &fakeFixtureRepo{}
	results := &fakeResultRepo{}
	svc := newTestFixtureService(tournaments, players, fixtures, results, &fakeStandingRepo{})
	ctx := context.Background()

	round1, err := svc.GenerateSchedule(ctx, 9, nil)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	f := round1[0]
	res, _ := models.NewResult(9, f.ID, f.HomeID, f.AwayID, 1, 0, f.MatchDate)
	if err := results.Create(ctx, nil, res); err != nil {
		t.Fatalf("seed result: %v", err)
	}
	if err := fixtures.SetPlayed(ctx, nil, f.ID, true); err != nil {
		t.Fatalf("SetPlayed: %v", err)
	}

	next, err := svc.AdvanceKnockoutRound(ctx, 9)
	if err != nil {
		t.Fatalf("AdvanceKnockoutRound: %v", err)
	}
	if len(next) != 0 {
		t.Errorf("fixtures after the final = %d, want none", len(next))
	}
	tournament, err := tournaments.GetByID(ctx, 9)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if tournament.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed after the final", tournament.Status)
	}
}
