package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/repositories"
	"github.com/nmwangi/efootball-league/scheduling"
	"github.com/nmwangi/efootball-league/storage"
)

type PlayerService interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	Update(ctx context.Context, id int, player *models.Player) (*models.Player, error)
	Delete(ctx context.Context, id int) error
	UploadPhoto(ctx context.Context, id int, contentType string, file io.Reader) (*models.Player, error)
	JoinLeague(ctx context.Context, tournamentID, playerID int) ([]*models.Fixture, error)
	RegisterDeviceToken(ctx context.Context, token *models.DeviceToken) error
}

type playerService struct {
	db             *sql.DB
	playerRepo     repositories.PlayerRepository
	fixtureRepo    repositories.FixtureRepository
	resultRepo     repositories.ResultRepository
	standingRepo   repositories.StandingRepository
	tournamentRepo repositories.TournamentRepository
	tokenRepo      repositories.DeviceTokenRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewPlayerService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	fixtureRepo repositories.FixtureRepository,
	resultRepo repositories.ResultRepository,
	standingRepo repositories.StandingRepository,
	tournamentRepo repositories.TournamentRepository,
	tokenRepo repositories.DeviceTokenRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		db:             db,
		playerRepo:     playerRepo,
		fixtureRepo:    fixtureRepo,
		resultRepo:     resultRepo,
		standingRepo:   standingRepo,
		tournamentRepo: tournamentRepo,
		tokenRepo:      tokenRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *playerService) Create(ctx context.Context, player *models.Player) error {
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return ErrPlayerNameConflict
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player %d: %w", id, err)
	}
	populatePlayerPhotoURL(player, s.uploader)
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]*models.Player, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	populatePlayerListPhotoURLs(players, s.uploader)
	return players, nil
}

func (s *playerService) Update(ctx context.Context, id int, update *models.Player) (*models.Player, error) {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	player.Name = update.Name
	player.TeamName = update.TeamName
	player.Strength = update.Strength
	player.Phone = update.Phone

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return nil, ErrPlayerNameConflict
		}
		return nil, fmt.Errorf("failed to update player %d: %w", id, err)
	}
	populatePlayerPhotoURL(player, s.uploader)
	return player, nil
}

// Delete removes a player together with every fixture, result and
// standings row that references them, then rewrites the table of each
// tournament they took part in from the surviving results.
func (s *playerService) Delete(ctx context.Context, id int) error {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tournamentIDs, err := s.standingRepo.ListTournamentIDsByPlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list tournaments for player %d: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err = s.resultRepo.DeleteByPlayer(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete results of player %d: %w", id, err)
	}
	if err = s.fixtureRepo.DeleteByPlayer(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete fixtures of player %d: %w", id, err)
	}
	if err = s.standingRepo.DeleteByPlayer(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete standings of player %d: %w", id, err)
	}
	if err = s.playerRepo.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	for _, tournamentID := range tournamentIDs {
		if _, err = recomputeStandings(ctx, tx, tournamentID, s.playerRepo, s.resultRepo, s.standingRepo); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if player.PhotoKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *player.PhotoKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete player photo",
				slog.Int("player_id", id), slog.Any("error", delErr))
		}
	}
	return nil
}

func (s *playerService) UploadPhoto(ctx context.Context, id int, contentType string, file io.Reader) (*models.Player, error) {
	player, err := s.GetByID(ctx, id)
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

	oldKey := player.PhotoKey
	newKey := fmt.Sprintf("players/%d/photo%s", id, ext)

	result, err := s.uploader.Upload(ctx, newKey, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo for player %d: %w", id, err)
	}
	if err := s.playerRepo.UpdatePhotoKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save photo key for player %d: %w", id, err)
	}
	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous photo",
				slog.Int("player_id", id), slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	player.PhotoKey = &result.Key
	populatePlayerPhotoURL(player, s.uploader)
	return player, nil
}

// JoinLeague enters a player into an open tournament: a zero standings
// row registers them, and in a running league the schedule is back-filled
// with one fixture against every existing member.
func (s *playerService) JoinLeague(ctx context.Context, tournamentID, playerID int) ([]*models.Fixture, error) {
	player, err := s.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.Status != models.StatusRegistration && tournament.Status != models.StatusActive {
		return nil, ErrRegistrationNotOpen
	}

	existingRows, err := s.standingRepo.ListByTournament(ctx, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for tournament %d: %w", tournamentID, err)
	}
	for _, row := range existingRows {
		if row.PlayerID == playerID {
			// Already a member; nothing to back-fill.
			return []*models.Fixture{}, nil
		}
	}

	fixtures, err := s.fixtureRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures for tournament %d: %w", tournamentID, err)
	}

	var backfill []*models.Fixture
	if len(fixtures) > 0 && tournament.Format != models.FormatKnockout {
		backfill, err = backfillFixtures(tournament, player, existingRows, fixtures)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = s.standingRepo.GetOrCreate(ctx, tx, tournamentID, playerID); err != nil {
		return nil, fmt.Errorf("failed to seed standing for player %d: %w", playerID, err)
	}
	for _, fixture := range backfill {
		if err = s.fixtureRepo.Create(ctx, tx, fixture); err != nil {
			return nil, fmt.Errorf("failed to create back-filled fixture: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "player joined league",
		slog.Int("tournament_id", tournamentID),
		slog.Int("player_id", playerID),
		slog.Int("backfilled_fixtures", len(backfill)))
	return backfill, nil
}

func (s *playerService) RegisterDeviceToken(ctx context.Context, token *models.DeviceToken) error {
	if token.Token == "" {
		return fmt.Errorf("%w: device token is required", ErrValidationFailed)
	}
	if _, err := s.GetByID(ctx, token.PlayerID); err != nil {
		return err
	}
	if err := s.tokenRepo.Register(ctx, token); err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

// backfillFixtures schedules one match between the newcomer and every
// existing member, continuing the tournament's date cursor past its last
// scheduled day. The lower player id is at home, matching the order the
// original schedule used.
func backfillFixtures(
	tournament *models.Tournament,
	newcomer *models.Player,
	existingRows []*models.Standing,
	fixtures []*models.Fixture,
) ([]*models.Fixture, error) {
	lastDate := tournament.StartDate
	maxNumber := 0
	for _, f := range fixtures {
		if f.MatchDate.After(lastDate) {
			lastDate = f.MatchDate
		}
		if f.MatchNumber > maxNumber {
			maxNumber = f.MatchNumber
		}
	}

	const perDay = 2
	out := make([]*models.Fixture, 0, len(existingRows))
	dayIndex := 0
	slotInDay := 0
	for _, row := range existingRows {
		homeID, awayID := row.PlayerID, newcomer.ID
		if newcomer.ID < row.PlayerID {
			homeID, awayID = newcomer.ID, row.PlayerID
		}
		f, err := models.NewFixture(
			tournament.ID,
			homeID,
			awayID,
			lastDate.AddDate(0, 0, dayIndex+1),
			scheduling.DefaultKickoffs[slotInDay%len(scheduling.DefaultKickoffs)],
			scheduling.DefaultVenues[dayIndex%len(scheduling.DefaultVenues)],
		)
		if err != nil {
			return nil, err
		}
		f.Round = 1
		maxNumber++
		f.MatchNumber = maxNumber
		out = append(out, f)

		slotInDay++
		if slotInDay == perDay {
			slotInDay = 0
			dayIndex++
		}
	}
	return out, nil
}
