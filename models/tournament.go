package models

import "time"

// TournamentStatus values match the ENUM in the database.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// TournamentFormat selects the fixture generator used for the competition.
type TournamentFormat string

const (
	FormatLeague   TournamentFormat = "league"
	FormatKnockout TournamentFormat = "knockout"
	// FormatBalanced is a league scheduled by strength proximity instead
	// of plain pair order.
	FormatBalanced TournamentFormat = "balanced"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Format      TournamentFormat `json:"format" db:"format"`
	Status      TournamentStatus `json:"status" db:"status"`
	EntryFeeKES int              `json:"entry_fee_kes" db:"entry_fee_kes"`
	RegDate     time.Time        `json:"reg_date" db:"reg_date"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	EndDate     time.Time        `json:"end_date" db:"end_date"`
	MaxPlayers  int              `json:"max_players" db:"max_players"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	// Optional linked data, populated by the service layer.
	Players  []Player  `json:"players,omitempty" db:"-"`
	Fixtures []Fixture `json:"fixtures,omitempty" db:"-"`
	Results  []Result  `json:"results,omitempty" db:"-"`
}
