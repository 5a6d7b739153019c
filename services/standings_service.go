package services

import (
	"context"
	"fmt"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/repositories"
	"github.com/nmwangi/efootball-league/standings"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	Table(ctx context.Context, tournamentID int) ([]standings.Row, error)
	Form(ctx context.Context, tournamentID, playerID, length int) (string, error)
	HeadToHead(ctx context.Context, tournamentID, aID, bID int) (*standings.HeadToHead, error)
}

type standingsService struct {
	playerRepo   repositories.PlayerRepository
	resultRepo   repositories.ResultRepository
	standingRepo repositories.StandingRepository
}

func NewStandingsService(
	playerRepo repositories.PlayerRepository,
	resultRepo repositories.ResultRepository,
	standingRepo repositories.StandingRepository,
) StandingsService {
	return &standingsService{
		playerRepo:   playerRepo,
		resultRepo:   resultRepo,
		standingRepo: standingRepo,
	}
}

// Table recomputes the league table from the result set on every read;
// the denormalized standings rows are a write-side copy, not the source
// the table is served from.
func (s *standingsService) Table(ctx context.Context, tournamentID int) ([]standings.Row, error) {
	roster, results, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return standings.Compute(roster, results), nil
}

func (s *standingsService) Form(ctx context.Context, tournamentID, playerID, length int) (string, error) {
	results, err := s.resultRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return "", fmt.Errorf("failed to list results for tournament %d: %w", tournamentID, err)
	}
	return standings.FormString(standings.FormGuide(playerID, results, length)), nil
}

func (s *standingsService) HeadToHead(ctx context.Context, tournamentID, aID, bID int) (*standings.HeadToHead, error) {
	results, err := s.resultRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for tournament %d: %w", tournamentID, err)
	}
	h2h := standings.ComputeHeadToHead(aID, bID, results)
	return &h2h, nil
}

func (s *standingsService) load(ctx context.Context, tournamentID int) ([]*models.Player, []*models.Result, error) {
	var (
		rows    []*models.Standing
		results []*models.Result
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.standingRepo.ListByTournament(gCtx, tournamentID, false)
		if err != nil {
			return fmt.Errorf("failed to list standings for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		results, err = s.resultRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list results for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	roster, err := s.playerRepo.ListByIDs(ctx, rosterIDs(rows, results))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roster for tournament %d: %w", tournamentID, err)
	}
	return roster, results, nil
}
