package scheduling

import (
	"context"
	"errors"
	"math/rand"
	"testing"
)

func TestKnockoutPairsEveryoneOnce(t *testing.T) {
	for _, n := range []int{2, 4, 6, 8} {
		gen := NewKnockoutGenerator(rand.New(rand.NewSource(42)))
		fixtures, err := gen.Generate(context.Background(), GenerateParams{
			Tournament: testTournament(),
			Roster:     testRoster(n),
		})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(fixtures) != n/2 {
			t.Fatalf("n=%d: want %d round-1 fixtures, got %d", n, n/2, len(fixtures))
		}

		seen := make(map[int]bool)
		for _, f := range fixtures {
			if f.Round != 1 {
				t.Errorf("n=%d: want round 1, got %d", n, f.Round)
			}
			if f.HomeID == f.AwayID {
				t.Errorf("n=%d: identical home/away %d", n, f.HomeID)
			}
			for _, id := range []int{f.HomeID, f.AwayID} {
				if seen[id] {
					t.Errorf("n=%d: player %d paired twice", n, id)
				}
				seen[id] = true
			}
		}
	}
}

func TestKnockoutOddRosterBye(t *testing.T) {
	gen := NewKnockoutGenerator(rand.New(rand.NewSource(1)))
	fixtures, err := gen.Generate(context.Background(), GenerateParams{
		Tournament: testTournament(),
		Roster:     testRoster(5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Odd player out is simply omitted: two fixtures, four distinct players.
	if len(fixtures) != 2 {
		t.Fatalf("want 2 fixtures for 5 players, got %d", len(fixtures))
	}
	paired := make(map[int]bool)
	for _, f := range fixtures {
		paired[f.HomeID] = true
		paired[f.AwayID] = true
	}
	if len(paired) != 4 {
		t.Errorf("want 4 distinct paired players, got %d", len(paired))
	}
}

func TestKnockoutDeterministicWithSeed(t *testing.T) {
	draw := func() []int {
		gen := NewKnockoutGenerator(rand.New(rand.NewSource(99)))
		fixtures, err := gen.Generate(context.Background(), GenerateParams{
			Tournament: testTournament(),
			Roster:     testRoster(8),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids := make([]int, 0, len(fixtures)*2)
		for _, f := range fixtures {
			ids = append(ids, f.HomeID, f.AwayID)
		}
		return ids
	}

	first, second := draw(), draw()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed must give the same draw: %v vs %v", first, second)
		}
	}
}

func TestKnockoutInsufficientPlayers(t *testing.T) {
	for _, n := range []int{0, 1} {
		_, err := NewKnockoutGenerator(nil).Generate(context.Background(), GenerateParams{
			Tournament: testTournament(),
			Roster:     testRoster(n),
		})
		if !errors.Is(err, ErrInsufficientPlayers) {
			t.Errorf("n=%d: want ErrInsufficientPlayers, got %v", n, err)
		}
	}
}

func TestPairWinners(t *testing.T) {
	winners := testRoster(5)
	fixtures, err := PairWinners(7, winners, 2, testStart, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("5 winners pair into 2 fixtures (odd one byes), got %d", len(fixtures))
	}
	for _, f := range fixtures {
		if f.Round != 2 {
			t.Errorf("want round 2, got %d", f.Round)
		}
	}
	// Bracket order preserved: (1,2) then (3,4).
	if fixtures[0].HomeID != 1 || fixtures[0].AwayID != 2 || fixtures[1].HomeID != 3 || fixtures[1].AwayID != 4 {
		t.Errorf("winners must pair in bracket order, got (%d,%d) (%d,%d)",
			fixtures[0].HomeID, fixtures[0].AwayID, fixtures[1].HomeID, fixtures[1].AwayID)
	}
}
