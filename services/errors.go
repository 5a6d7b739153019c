package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	// Generic not-found
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed     = errors.New("validation failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrRegistrationNotOpen  = errors.New("tournament registration is not open")
	ErrTournamentNotActive  = errors.New("tournament is not active")
	ErrFixtureAlreadyPlayed = errors.New("fixture has already been played")
	ErrResultPairMismatch   = errors.New("result players do not match the fixture")
	ErrScheduleConflict     = errors.New("requested slot conflicts with an existing fixture")
	ErrPaymentNotSettled    = errors.New("entry payment has not been settled")
	ErrPaymentRequired      = errors.New("tournament requires an entry fee payment")

	// Conflicts
	ErrPlayerNameConflict     = errors.New("player name is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrResultAlreadyRecorded  = errors.New("fixture already has a recorded result")
	ErrPaymentDuplicate       = errors.New("payment reference already exists")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Entity-specific not-found variants for extra context
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrFixtureNotFound    = errors.New("fixture not found")
	ErrResultNotFound     = errors.New("result not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrAdminNotFound      = errors.New("admin account not found")

	// Tournament lifecycle
	ErrTournamentInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentHasFixtures             = errors.New("tournament already has generated fixtures")
	ErrUnknownFormat                     = errors.New("unknown fixture generation format")

	// Knockout progression
	ErrRoundNotComplete     = errors.New("current round still has unplayed fixtures")
	ErrKnockoutFixtureDrawn = errors.New("knockout fixture ended level, a winner is required")
)
