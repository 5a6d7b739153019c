package models

import (
	"errors"
	"time"
)

var (
	ErrPlayerNameRequired    = errors.New("player name is required")
	ErrPlayerInvalidStrength = errors.New("player strength rating must not be negative")
)

// Player is a registered competitor. Strength is a coarse rating used by
// the balanced scheduler to pair closely rated opponents first.
type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	TeamName  string    `json:"team_name" db:"team_name"`
	Strength  int       `json:"strength" db:"strength"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`
}

func NewPlayer(name, teamName string, strength int) (*Player, error) {
	if name == "" {
		return nil, ErrPlayerNameRequired
	}
	if strength < 0 {
		return nil, ErrPlayerInvalidStrength
	}
	return &Player{Name: name, TeamName: teamName, Strength: strength}, nil
}
