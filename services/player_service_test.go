package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nmwangi/efootball-league/models"
)

func newTestPlayerService(
	tournaments *fakeTournamentRepo,
	players *fakePlayerRepo,
	fixtures *fakeFixtureRepo,
	results *fakeResultRepo,
	standings *fakeStandingRepo,
) PlayerService {
	return NewPlayerService(newFakeDB(), players, fixtures, results, standings, tournaments, &fakeTokenRepo{}, nil, testLogger())
}

func TestJoinLeagueBackfillsFixturesAgainstEveryMember(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(7, models.FormatLeague))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice"},
		&models.Player{ID: 2, Name: "Brian"},
		&models.Player{ID: 3, Name: "Cynthia"},
		&models.Player{ID: 4, Name: "David"},
	)
	fixtures := &fakeFixtureRepo{}
	standings := &fakeStandingRepo{}
	ctx := context.Background()

	// A running league of three with its original schedule.
	apr6 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	pairs := [][2]int{{1, 2}, {1, 3}, {2, 3}}
	for i, pair := range pairs {
		f, err := models.NewFixture(7, pair[0], pair[1], apr6.AddDate(0, 0, i/2), "10:00", "Main Hall")
		if err != nil {
			t.Fatalf("NewFixture: %v", err)
		}
		f.Round = 1
		f.MatchNumber = i + 1
		if err := fixtures.Create(ctx, nil, f); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
	for id := 1; id <= 3; id++ {
		if _, err := standings.GetOrCreate(ctx, nil, 7, id); err != nil {
			t.Fatalf("seed standing: %v", err)
		}
	}

	svc := newTestPlayerService(tournaments, players, fixtures, &fakeResultRepo{}, standings)

	backfill, err := svc.JoinLeague(ctx, 7, 4)
	if err != nil {
		t.Fatalf("JoinLeague: %v", err)
	}
	if len(backfill) != 3 {
		t.Fatalf("backfilled %d fixtures, want 3 (one per existing member)", len(backfill))
	}

	lastOriginal := apr6.AddDate(0, 0, 1)
	for _, f := range backfill {
		if f.HomeID != 4 && f.AwayID != 4 {
			t.Errorf("backfilled fixture %d does not involve the newcomer", f.ID)
		}
		if f.AwayID != 4 {
			t.Errorf("fixture (%d,%d): newcomer with the higher id should be away", f.HomeID, f.AwayID)
		}
		if !f.MatchDate.After(lastOriginal) {
			t.Errorf("backfilled fixture on %v, want it after the existing schedule (%v)", f.MatchDate, lastOriginal)
		}
		if f.MatchNumber <= 3 {
			t.Errorf("match number %d collides with the original schedule", f.MatchNumber)
		}
	}

	rows, err := standings.ListByTournament(ctx, 7, false)
	if err != nil {
		t.Fatalf("ListByTournament: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("standings rows = %d, want 4 after the join", len(rows))
	}

	// Joining twice must not duplicate fixtures.
	again, err := svc.JoinLeague(ctx, 7, 4)
	if err != nil {
		t.Fatalf("repeat JoinLeague: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("repeat join backfilled %d fixtures, want 0", len(again))
	}
}

func TestJoinLeagueRequiresOpenTournament(t *testing.T) {
	closed := leagueTournament(7, models.FormatLeague)
	closed.Status = models.StatusCompleted
	tournaments := newFakeTournamentRepo(closed)
	players := newFakePlayerRepo(&models.Player{ID: 1, Name: "Alice"})
	svc := newTestPlayerService(tournaments, players, &fakeFixtureRepo{}, &fakeResultRepo{}, &fakeStandingRepo{})

	if _, err := svc.JoinLeague(context.Background(), 7, 1); !errors.Is(err, ErrRegistrationNotOpen) {
		t.Errorf("JoinLeague error = %v, want ErrRegistrationNotOpen", err)
	}
}

func TestDeletePlayerCascadesAndRewritesTables(t *testing.T) {
	tournaments := newFakeTournamentRepo(leagueTournament(7, models.FormatLeague))
	players := newFakePlayerRepo(
		&models.Player{ID: 1, Name: "Alice"},
		&models.Player{ID: 2, Name: "Brian"},
		&models.Player{ID: 3, Name: "Cynthia"},
	)
	fixtures := &fakeFixtureRepo{}
	results := &fakeResultRepo{}
	standings := &fakeStandingRepo{}
	ctx := context.Background()

	apr6 := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	pairs := [][2]int{{1, 2}, {1, 3}, {2, 3}}
	for i, pair := range pairs {
		f, _ := models.NewFixture(7, pair[0], pair[1], apr6.AddDate(0, 0, i), "10:00", "Main Hall")
		if err := fixtures.Create(ctx, nil, f); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
	for id := 1; id <= 3; id++ {
		if _, err := standings.GetOrCreate(ctx, nil, 7, id); err != nil {
			t.Fatalf("seed standing: %v", err)
		}
	}

	resultSvc := NewResultService(newFakeDB(), fixtures, results, standings, players, nil, nil, testLogger())
	if _, err := resultSvc.RecordResult(ctx, 1, 2, 0); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if _, err := resultSvc.RecordResult(ctx, 2, 1, 1); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	svc := newTestPlayerService(tournaments, players, fixtures, results, standings)
	if err := svc.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.GetByID(ctx, 2); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("lookup after delete = %v, want ErrPlayerNotFound", err)
	}

	remaining, err := fixtures.ListByTournament(ctx, 7, nil, nil)
	if err != nil {
		t.Fatalf("ListByTournament: %v", err)
	}
	for _, f := range remaining {
		if f.HomeID == 2 || f.AwayID == 2 {
			t.Errorf("fixture %d still references the deleted player", f.ID)
		}
	}
	if len(remaining) != 1 {
		t.Errorf("remaining fixtures = %d, want 1", len(remaining))
	}

	rows, err := standings.ListByTournament(ctx, 7, false)
	if err != nil {
		t.Fatalf("ListByTournament standings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("standings rows = %d, want 2 after the delete", len(rows))
	}
	// Brian's 0-2 loss went with him; the Alice-Cynthia draw remains.
	for _, row := range rows {
		if row.PlayerID == 2 {
			t.Error("deleted player still has a standings row")
		}
		if row.Points != 1 || row.Draws != 1 {
			t.Errorf("player %d row = %d pts %d draws, want the lone draw to remain", row.PlayerID, row.Points, row.Draws)
		}
	}
}
