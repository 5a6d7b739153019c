package models

import "time"

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Admin is a back-office account that can manage tournaments, fixtures
// and results.
type Admin struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DashboardStats is the admin landing-page summary.
type DashboardStats struct {
	PlayersTotal      int `json:"players_total"`
	TournamentsTotal  int `json:"tournaments_total"`
	ActiveTournaments int `json:"active_tournaments"`
	FixturesTotal     int `json:"fixtures_total"`
	FixturesPlayed    int `json:"fixtures_played"`
	PaymentsReceived  int `json:"payments_received"`
}
