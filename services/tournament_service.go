package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/repositories"
	"github.com/nmwangi/efootball-league/storage"
	"golang.org/x/sync/errgroup"
)

type TournamentService interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetWithDetails(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, id int, tournament *models.Tournament) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, next models.TournamentStatus) (*models.Tournament, error)
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	AutoUpdateStatusesByDates(ctx context.Context) (int, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	fixtureRepo    repositories.FixtureRepository
	resultRepo     repositories.ResultRepository
	standingRepo   repositories.StandingRepository
	paymentRepo    repositories.PaymentRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	fixtureRepo repositories.FixtureRepository,
	resultRepo repositories.ResultRepository,
	standingRepo repositories.StandingRepository,
	paymentRepo repositories.PaymentRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		fixtureRepo:    fixtureRepo,
		resultRepo:     resultRepo,
		standingRepo:   standingRepo,
		paymentRepo:    paymentRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, tournament *models.Tournament) error {
	if tournament.Name == "" {
		return fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	switch tournament.Format {
	case models.FormatLeague, models.FormatKnockout, models.FormatBalanced:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, tournament.Format)
	}
	if err := validateTournamentDates(tournament.StartDate, tournament.EndDate); err != nil {
		return err
	}
	if tournament.Status == "" {
		tournament.Status = models.StatusSoon
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return ErrTournamentNameConflict
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	s.populateLogoURL(tournament)
	return tournament, nil
}

// GetWithDetails loads the tournament together with its roster, fixtures
// and results, fetched concurrently.
func (s *tournamentService) GetWithDetails(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		fixtures []*models.Fixture
		results  []*models.Result
		rows     []*models.Standing
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var listErr error
		fixtures, listErr = s.fixtureRepo.ListByTournament(gCtx, id, nil, nil)
		return listErr
	})
	g.Go(func() error {
		var listErr error
		results, listErr = s.resultRepo.ListByTournament(gCtx, nil, id)
		return listErr
	})
	g.Go(func() error {
		var listErr error
		rows, listErr = s.standingRepo.ListByTournament(gCtx, id, false)
		return listErr
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load details for tournament %d: %w", id, err)
	}

	roster, err := s.playerRepo.ListByIDs(ctx, rosterIDs(rows, results))
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for tournament %d: %w", id, err)
	}
	populatePlayerListPhotoURLs(roster, s.uploader)

	tournament.Players = make([]models.Player, 0, len(roster))
	for _, p := range roster {
		tournament.Players = append(tournament.Players, *p)
	}
	tournament.Fixtures = make([]models.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		tournament.Fixtures = append(tournament.Fixtures, *f)
	}
	tournament.Results = make([]models.Result, 0, len(results))
	for _, r := range results {
		tournament.Results = append(tournament.Results, *r)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, t := range tournaments {
		s.populateLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, update *models.Tournament) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateTournamentDates(update.StartDate, update.EndDate); err != nil {
		return nil, err
	}

	tournament.Name = update.Name
	tournament.Description = update.Description
	tournament.EntryFeeKES = update.EntryFeeKES
	tournament.RegDate = update.RegDate
	tournament.StartDate = update.StartDate
	tournament.EndDate = update.EndDate
	tournament.MaxPlayers = update.MaxPlayers

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id int, next models.TournamentStatus) (*models.Tournament, error) {
	switch next {
	case models.StatusSoon, models.StatusRegistration, models.StatusActive, models.StatusCompleted, models.StatusCanceled:
	default:
		return nil, ErrTournamentInvalidStatus
	}

	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isValidStatusTransition(tournament.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, next)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, next); err != nil {
		return nil, fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	tournament.Status = next
	return tournament, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidationFailed)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	oldKey := tournament.LogoKey
	newKey := fmt.Sprintf("tournaments/%d/logo%s", id, ext)

	result, err := s.uploader.Upload(ctx, newKey, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo for tournament %d: %w", id, err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save logo key for tournament %d: %w", id, err)
	}
	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous logo",
				slog.Int("tournament_id", id), slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	tournament.LogoKey = &result.Key
	s.populateLogoURL(tournament)
	return tournament, nil
}

// Delete removes the tournament and all of its dependent rows in one
// transaction.
func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err = s.resultRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete results of tournament %d: %w", id, err)
	}
	if err = s.fixtureRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete fixtures of tournament %d: %w", id, err)
	}
	if err = s.standingRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete standings of tournament %d: %w", id, err)
	}
	if err = s.paymentRepo.DeleteByTournament(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete payments of tournament %d: %w", id, err)
	}
	if err = s.tournamentRepo.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if tournament.LogoKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *tournament.LogoKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete tournament logo",
				slog.Int("tournament_id", id), slog.Any("error", delErr))
		}
	}
	return nil
}

// AutoUpdateStatusesByDates walks tournaments whose dates have outrun
// their status and advances them along the lifecycle. Runs from the
// background scheduler.
func (s *tournamentService) AutoUpdateStatusesByDates(ctx context.Context) (int, error) {
	now := time.Now()
	candidates, err := s.tournamentRepo.ListNeedingStatusUpdate(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list tournaments needing status update: %w", err)
	}

	updated := 0
	for _, tournament := range candidates {
		next := statusForDates(tournament, now)
		if next == tournament.Status || !isValidStatusTransition(tournament.Status, next) {
			continue
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournament.ID, next); err != nil {
			s.logger.ErrorContext(ctx, "failed to auto-update tournament status",
				slog.Int("tournament_id", tournament.ID),
				slog.String("from", string(tournament.Status)),
				slog.String("to", string(next)),
				slog.Any("error", err))
			continue
		}
		s.logger.InfoContext(ctx, "tournament status advanced",
			slog.Int("tournament_id", tournament.ID),
			slog.String("from", string(tournament.Status)),
			slog.String("to", string(next)))
		updated++
	}
	return updated, nil
}

func statusForDates(t *models.Tournament, now time.Time) models.TournamentStatus {
	switch {
	case !t.EndDate.IsZero() && now.After(t.EndDate):
		return models.StatusCompleted
	case !t.StartDate.IsZero() && now.After(t.StartDate):
		return models.StatusActive
	case !t.RegDate.IsZero() && now.After(t.RegDate):
		return models.StatusRegistration
	default:
		return t.Status
	}
}

func (s *tournamentService) populateLogoURL(t *models.Tournament) {
	if t != nil && t.LogoKey != nil && *t.LogoKey != "" && s.uploader != nil {
		url := s.uploader.GetPublicURL(*t.LogoKey)
		if url != "" {
			t.LogoURL = &url
		}
	}
}
