package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewFixtureRejectsSamePlayer(t *testing.T) {
	_, err := NewFixture(1, 5, 5, time.Now(), "10:00", "Main Hall")
	if !errors.Is(err, ErrFixtureSamePlayer) {
		t.Errorf("want ErrFixtureSamePlayer, got %v", err)
	}
	if _, err := NewFixture(1, 5, 6, time.Now(), "10:00", "Main Hall"); err != nil {
		t.Errorf("distinct players must construct, got %v", err)
	}
}

func TestNewResultValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewResult(1, 2, 5, 5, 1, 0, now); !errors.Is(err, ErrResultSamePlayer) {
		t.Errorf("want ErrResultSamePlayer, got %v", err)
	}
	if _, err := NewResult(1, 2, 5, 6, -1, 0, now); !errors.Is(err, ErrResultNegativeScore) {
		t.Errorf("want ErrResultNegativeScore for home, got %v", err)
	}
	if _, err := NewResult(1, 2, 5, 6, 0, -3, now); !errors.Is(err, ErrResultNegativeScore) {
		t.Errorf("want ErrResultNegativeScore for away, got %v", err)
	}
	r, err := NewResult(1, 2, 5, 6, 0, 0, now)
	if err != nil {
		t.Fatalf("0-0 is valid, got %v", err)
	}
	if r.HomeScore != 0 || r.AwayScore != 0 {
		t.Errorf("scores not carried: %+v", r)
	}
}

func TestNewPlayerValidation(t *testing.T) {
	if _, err := NewPlayer("", "Gor FC", 10); !errors.Is(err, ErrPlayerNameRequired) {
		t.Errorf("want ErrPlayerNameRequired, got %v", err)
	}
	if _, err := NewPlayer("Otieno", "Gor FC", -1); !errors.Is(err, ErrPlayerInvalidStrength) {
		t.Errorf("want ErrPlayerInvalidStrength, got %v", err)
	}
	p, err := NewPlayer("Otieno", "Gor FC", 72)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Strength != 72 {
		t.Errorf("strength not carried: %d", p.Strength)
	}
}
