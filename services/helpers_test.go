package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nmwangi/efootball-league/models"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to models.TournamentStatus
		ok       bool
	}{
		{models.StatusSoon, models.StatusRegistration, true},
		{models.StatusSoon, models.StatusCanceled, true},
		{models.StatusSoon, models.StatusCompleted, false},
		{models.StatusRegistration, models.StatusActive, true},
		{models.StatusRegistration, models.StatusSoon, false},
		{models.StatusActive, models.StatusCompleted, true},
		{models.StatusActive, models.StatusRegistration, false},
		{models.StatusCompleted, models.StatusActive, false},
		{models.StatusCanceled, models.StatusActive, false},
		{models.StatusActive, models.StatusActive, true},
	}
	for _, tc := range cases {
		if got := isValidStatusTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("transition %s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestStatusForDates(t *testing.T) {
	reg := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC)
	tournament := &models.Tournament{Status: models.StatusSoon, RegDate: reg, StartDate: start, EndDate: end}

	cases := []struct {
		now  time.Time
		want models.TournamentStatus
	}{
		{reg.AddDate(0, 0, -1), models.StatusSoon},
		{reg.AddDate(0, 0, 1), models.StatusRegistration},
		{start.AddDate(0, 0, 1), models.StatusActive},
		{end.AddDate(0, 0, 1), models.StatusCompleted},
	}
	for _, tc := range cases {
		if got := statusForDates(tournament, tc.now); got != tc.want {
			t.Errorf("statusForDates(%v) = %s, want %s", tc.now, got, tc.want)
		}
	}
}

func TestAutoUpdateStatusesAdvancesLifecycle(t *testing.T) {
	now := time.Now()
	due := &models.Tournament{
		ID:        1,
		Name:      "Spring Cup",
		Format:    models.FormatLeague,
		Status:    models.StatusRegistration,
		RegDate:   now.AddDate(0, 0, -7),
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 20),
	}
	finished := &models.Tournament{
		ID:        2,
		Name:      "Winter Cup",
		Format:    models.FormatLeague,
		Status:    models.StatusActive,
		RegDate:   now.AddDate(0, -2, 0),
		StartDate: now.AddDate(0, -1, 0),
		EndDate:   now.AddDate(0, 0, -1),
	}
	tournaments := newFakeTournamentRepo(due, finished)

	svc := NewTournamentService(newFakeDB(), tournaments, newFakePlayerRepo(), &fakeFixtureRepo{}, &fakeResultRepo{}, &fakeStandingRepo{}, &fakePaymentRepo{}, nil, testLogger())

	updated, err := svc.AutoUpdateStatusesByDates(context.Background())
	if err != nil {
		t.Fatalf("AutoUpdateStatusesByDates: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	got1, _ := tournaments.GetByID(context.Background(), 1)
	if got1.Status != models.StatusActive {
		t.Errorf("tournament 1 status = %s, want active", got1.Status)
	}
	got2, _ := tournaments.GetByID(context.Background(), 2)
	if got2.Status != models.StatusCompleted {
		t.Errorf("tournament 2 status = %s, want completed", got2.Status)
	}
}

func TestValidateTournamentDates(t *testing.T) {
	start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	if err := validateTournamentDates(start, start.AddDate(0, 1, 0)); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if err := validateTournamentDates(start, start); !errors.Is(err, ErrTournamentInvalidDateRange) {
		t.Errorf("equal dates error = %v, want ErrTournamentInvalidDateRange", err)
	}
	if err := validateTournamentDates(time.Time{}, start); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("zero start error = %v, want ErrValidationFailed", err)
	}
}
