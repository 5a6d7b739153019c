package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nmwangi/efootball-league/live"
	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/notifications"
	"github.com/nmwangi/efootball-league/repositories"
	"github.com/nmwangi/efootball-league/standings"
)

type ResultService interface {
	RecordResult(ctx context.Context, fixtureID, homeScore, awayScore int) (*models.Result, error)
	GetByFixture(ctx context.Context, fixtureID int) (*models.Result, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Result, error)
	DeleteResult(ctx context.Context, resultID int) error
}

type resultService struct {
	db           *sql.DB
	fixtureRepo  repositories.FixtureRepository
	resultRepo   repositories.ResultRepository
	standingRepo repositories.StandingRepository
	playerRepo   repositories.PlayerRepository
	hub          *live.Hub
	notify       *notifications.Store
	logger       *slog.Logger
}

func NewResultService(
	db *sql.DB,
	fixtureRepo repositories.FixtureRepository,
	resultRepo repositories.ResultRepository,
	standingRepo repositories.StandingRepository,
	playerRepo repositories.PlayerRepository,
	hub *live.Hub,
	notify *notifications.Store,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:           db,
		fixtureRepo:  fixtureRepo,
		resultRepo:   resultRepo,
		standingRepo: standingRepo,
		playerRepo:   playerRepo,
		hub:          hub,
		notify:       notify,
		logger:       logger,
	}
}

// RecordResult writes the result, flips the fixture to played and rewrites
// the tournament's standings, all in one transaction. Either everything
// lands or nothing does.
func (s *resultService) RecordResult(ctx context.Context, fixtureID, homeScore, awayScore int) (*models.Result, error) {
	fixture, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		if errors.Is(err, repositories.ErrFixtureNotFound) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("failed to load fixture %d: %w", fixtureID, err)
	}
	if fixture.Played {
		return nil, ErrFixtureAlreadyPlayed
	}

	result, err := models.NewResult(fixture.TournamentID, fixture.ID, fixture.HomeID, fixture.AwayID, homeScore, awayScore, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err = s.resultRepo.Create(ctx, tx, result); err != nil {
		if errors.Is(err, repositories.ErrResultFixtureRecorded) {
			return nil, ErrResultAlreadyRecorded
		}
		return nil, fmt.Errorf("failed to create result for fixture %d: %w", fixtureID, err)
	}
	if err = s.fixtureRepo.SetPlayed(ctx, tx, fixture.ID, true); err != nil {
		return nil, fmt.Errorf("failed to mark fixture %d as played: %w", fixtureID, err)
	}

	rows, err := recomputeStandings(ctx, tx, fixture.TournamentID, s.playerRepo, s.resultRepo, s.standingRepo)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publishStandings(fixture.TournamentID, rows)
	if s.notify != nil {
		title := "Result recorded"
		body := fmt.Sprintf("Fixture %d finished %d-%d", fixture.ID, homeScore, awayScore)
		if err := s.notify.Queue(ctx, nil, title, body, "result", result.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to queue result notification",
				slog.Int("result_id", result.ID), slog.Any("error", err))
		}
	}

	return result, nil
}

func (s *resultService) GetByFixture(ctx context.Context, fixtureID int) (*models.Result, error) {
	result, err := s.resultRepo.GetByFixture(ctx, fixtureID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result for fixture %d: %w", fixtureID, err)
	}
	return result, nil
}

func (s *resultService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Result, error) {
	results, err := s.resultRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for tournament %d: %w", tournamentID, err)
	}
	return results, nil
}

// DeleteResult reverses RecordResult: removes the row, reopens the fixture
// and rewrites the standings from the remaining results.
func (s *resultService) DeleteResult(ctx context.Context, resultID int) error {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return ErrResultNotFound
		}
		return fmt.Errorf("failed to load result %d: %w", resultID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err = s.resultRepo.Delete(ctx, tx, resultID); err != nil {
		return fmt.Errorf("failed to delete result %d: %w", resultID, err)
	}
	if err = s.fixtureRepo.SetPlayed(ctx, tx, result.FixtureID, false); err != nil {
		return fmt.Errorf("failed to reopen fixture %d: %w", result.FixtureID, err)
	}

	rows, err := recomputeStandings(ctx, tx, result.TournamentID, s.playerRepo, s.resultRepo, s.standingRepo)
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publishStandings(result.TournamentID, rows)
	return nil
}

func (s *resultService) publishStandings(tournamentID int, rows []standings.Row) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(live.RoomForTournament(tournamentID), live.Event{
		Type:    "STANDINGS_UPDATED",
		Payload: rows,
	})
}
