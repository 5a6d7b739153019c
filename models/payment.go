package models

import "time"

// PaymentStatus tracks an M-Pesa STK push through the PayFlow gateway.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
	PaymentTimeout PaymentStatus = "timeout"
)

type Payment struct {
	ID           int           `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	PlayerName   string        `json:"player_name" db:"player_name"`
	TeamName     string        `json:"team_name" db:"team_name"`
	Phone        string        `json:"phone" db:"phone"`
	AmountKES    int           `json:"amount_kes" db:"amount_kes"`
	CheckoutID   string        `json:"checkout_id" db:"checkout_id"`
	Reference    string        `json:"reference" db:"reference"`
	Status       PaymentStatus `json:"status" db:"status"`
	Receipt      *string       `json:"receipt,omitempty" db:"receipt"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}
