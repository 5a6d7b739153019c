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
	"github.com/nmwangi/efootball-league/scheduling"
)

type FixtureService interface {
	GenerateSchedule(ctx context.Context, tournamentID int, playerIDs []int) ([]*models.Fixture, error)
	CreateFixture(ctx context.Context, fixture *models.Fixture) error
	GetByID(ctx context.Context, id int) (*models.Fixture, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, played *bool) ([]*models.Fixture, error)
	ListByPlayer(ctx context.Context, playerID int) ([]*models.Fixture, error)
	Reschedule(ctx context.Context, id int, matchDate time.Time, kickoff, venue string) (*models.Fixture, error)
	DeleteFixture(ctx context.Context, id int) error
	AdvanceKnockoutRound(ctx context.Context, tournamentID int) ([]*models.Fixture, error)
}

type fixtureService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	fixtureRepo    repositories.FixtureRepository
	resultRepo     repositories.ResultRepository
	standingRepo   repositories.StandingRepository
	knockoutRNG    *scheduling.KnockoutGenerator
	hub            *live.Hub
	notify         *notifications.Store
	logger         *slog.Logger
}

func NewFixtureService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	fixtureRepo repositories.FixtureRepository,
	resultRepo repositories.ResultRepository,
	standingRepo repositories.StandingRepository,
	knockout *scheduling.KnockoutGenerator,
	hub *live.Hub,
	notify *notifications.Store,
	logger *slog.Logger,
) FixtureService {
	return &fixtureService{
		db:             db,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		fixtureRepo:    fixtureRepo,
		resultRepo:     resultRepo,
		standingRepo:   standingRepo,
		knockoutRNG:    knockout,
		hub:            hub,
		notify:         notify,
		logger:         logger,
	}
}

func (s *fixtureService) generatorFor(format models.TournamentFormat) (scheduling.Generator, error) {
	switch format {
	case models.FormatLeague:
		return scheduling.NewRoundRobinGenerator(), nil
	case models.FormatBalanced:
		return scheduling.NewBalancedGenerator(scheduling.BalancedConfig{}), nil
	case models.FormatKnockout:
		return s.knockoutRNG, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// GenerateSchedule builds the full fixture list for a tournament and
// persists it together with the zero standings rows that register the
// roster, in one transaction. An empty playerIDs slice means every
// registered player takes part.
func (s *fixtureService) GenerateSchedule(ctx context.Context, tournamentID int, playerIDs []int) ([]*models.Fixture, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.fixtureRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing fixtures for tournament %d: %w", tournamentID, err)
	}
	if len(existing) > 0 {
		return nil, ErrTournamentHasFixtures
	}

	var roster []*models.Player
	if len(playerIDs) == 0 {
		roster, err = s.playerRepo.List(ctx)
	} else {
		roster, err = s.playerRepo.ListByIDs(ctx, playerIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for tournament %d: %w", tournamentID, err)
	}
	if len(playerIDs) > 0 && len(roster) != len(playerIDs) {
		return nil, fmt.Errorf("%w: roster references unknown players", ErrPlayerNotFound)
	}

	generator, err := s.generatorFor(tournament.Format)
	if err != nil {
		return nil, err
	}

	fixtures, err := generator.Generate(ctx, scheduling.GenerateParams{
		Tournament: tournament,
		Roster:     roster,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule generation (%s) for tournament %d failed: %w", generator.Name(), tournamentID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, fixture := range fixtures {
		if err = s.fixtureRepo.Create(ctx, tx, fixture); err != nil {
			return nil, fmt.Errorf("failed to persist fixture %d vs %d: %w", fixture.HomeID, fixture.AwayID, err)
		}
	}
	for _, player := range roster {
		if _, err = s.standingRepo.GetOrCreate(ctx, tx, tournamentID, player.ID); err != nil {
			return nil, fmt.Errorf("failed to seed standing for player %d: %w", player.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "schedule generated",
		slog.Int("tournament_id", tournamentID),
		slog.String("generator", generator.Name()),
		slog.Int("fixtures", len(fixtures)),
		slog.Int("roster", len(roster)))

	s.broadcast(tournamentID, "FIXTURES_GENERATED", fixtures)
	if s.notify != nil {
		body := fmt.Sprintf("%d fixtures published", len(fixtures))
		if qErr := s.notify.Queue(ctx, nil, "Schedule out", body, "tournament", tournamentID); qErr != nil {
			s.logger.WarnContext(ctx, "failed to queue schedule notification", slog.Any("error", qErr))
		}
	}
	return fixtures, nil
}

// CreateFixture persists a manually arranged fixture after checking the
// slot against the rest of the tournament's schedule.
func (s *fixtureService) CreateFixture(ctx context.Context, fixture *models.Fixture) error {
	if _, err := s.loadTournament(ctx, fixture.TournamentID); err != nil {
		return err
	}

	existing, err := s.fixtureRepo.ListByTournament(ctx, fixture.TournamentID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to list fixtures for conflict check: %w", err)
	}
	if err := conflictGuard(append(existing, fixture), fixture.ID); err != nil {
		return err
	}

	if err := s.fixtureRepo.Create(ctx, nil, fixture); err != nil {
		return fmt.Errorf("failed to create fixture: %w", err)
	}
	s.broadcast(fixture.TournamentID, "FIXTURE_SCHEDULED", fixture)
	return nil
}

func (s *fixtureService) GetByID(ctx context.Context, id int) (*models.Fixture, error) {
	fixture, err := s.fixtureRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrFixtureNotFound) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("failed to load fixture %d: %w", id, err)
	}
	return fixture, nil
}

func (s *fixtureService) ListByTournament(ctx context.Context, tournamentID int, round *int, played *bool) ([]*models.Fixture, error) {
	fixtures, err := s.fixtureRepo.ListByTournament(ctx, tournamentID, round, played)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures for tournament %d: %w", tournamentID, err)
	}
	return fixtures, nil
}

func (s *fixtureService) ListByPlayer(ctx context.Context, playerID int) ([]*models.Fixture, error) {
	fixtures, err := s.fixtureRepo.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures for player %d: %w", playerID, err)
	}
	return fixtures, nil
}

// Reschedule moves a fixture to a new slot. The move is rejected when it
// would put either player or the venue in two places at once.
func (s *fixtureService) Reschedule(ctx context.Context, id int, matchDate time.Time, kickoff, venue string) (*models.Fixture, error) {
	fixture, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fixture.Played {
		return nil, ErrFixtureAlreadyPlayed
	}

	moved := *fixture
	moved.MatchDate = matchDate
	if kickoff != "" {
		moved.Kickoff = kickoff
	}
	if venue != "" {
		moved.Venue = venue
	}

	all, err := s.fixtureRepo.ListByTournament(ctx, fixture.TournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures for conflict check: %w", err)
	}
	for i, f := range all {
		if f.ID == id {
			all[i] = &moved
		}
	}
	if err := conflictGuard(all, id); err != nil {
		return nil, err
	}

	if err := s.fixtureRepo.UpdateSchedule(ctx, nil, id, &moved); err != nil {
		return nil, fmt.Errorf("failed to reschedule fixture %d: %w", id, err)
	}
	s.broadcast(fixture.TournamentID, "FIXTURE_RESCHEDULED", &moved)
	return &moved, nil
}

// DeleteFixture removes a fixture and, when a result was already recorded
// against it, the result and its effect on the table as well.
func (s *fixtureService) DeleteFixture(ctx context.Context, id int) error {
	fixture, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.resultRepo.GetByFixture(ctx, id)
	if err != nil && !errors.Is(err, repositories.ErrResultNotFound) {
		return fmt.Errorf("failed to check result for fixture %d: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if result != nil {
		if err = s.resultRepo.Delete(ctx, tx, result.ID); err != nil {
			return fmt.Errorf("failed to delete result %d: %w", result.ID, err)
		}
	}
	if err = s.fixtureRepo.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete fixture %d: %w", id, err)
	}
	if result != nil {
		if _, err = recomputeStandings(ctx, tx, fixture.TournamentID, s.playerRepo, s.resultRepo, s.standingRepo); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AdvanceKnockoutRound pairs the winners of the latest completed round in
// bracket order and persists the next round. An odd winner carries a bye.
// When fewer than two players remain the tournament is marked completed
// and no fixtures are created.
func (s *fixtureService) AdvanceKnockoutRound(ctx context.Context, tournamentID int) ([]*models.Fixture, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Format != models.FormatKnockout {
		return nil, fmt.Errorf("%w: %q is not a knockout tournament", ErrValidationFailed, tournament.Name)
	}

	currentRound, err := s.fixtureRepo.MaxRound(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if currentRound == 0 {
		return nil, fmt.Errorf("%w: no fixtures generated yet", ErrValidationFailed)
	}

	roundFixtures, err := s.fixtureRepo.ListByTournament(ctx, tournamentID, &currentRound, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list round %d fixtures: %w", currentRound, err)
	}

	winnerIDs := make([]int, 0, len(roundFixtures))
	lastDate := tournament.StartDate
	for _, fixture := range roundFixtures {
		if !fixture.Played {
			return nil, ErrRoundNotComplete
		}
		result, err := s.resultRepo.GetByFixture(ctx, fixture.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load result for fixture %d: %w", fixture.ID, err)
		}
		switch {
		case result.HomeScore > result.AwayScore:
			winnerIDs = append(winnerIDs, result.HomeID)
		case result.AwayScore > result.HomeScore:
			winnerIDs = append(winnerIDs, result.AwayID)
		default:
			return nil, fmt.Errorf("%w: fixture %d", ErrKnockoutFixtureDrawn, fixture.ID)
		}
		if fixture.MatchDate.After(lastDate) {
			lastDate = fixture.MatchDate
		}
	}

	// Players still standing who sat this round out (byes) advance too.
	alive, err := s.aliveKnockoutPlayers(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	inRound := make(map[int]struct{}, len(roundFixtures)*2)
	for _, fixture := range roundFixtures {
		inRound[fixture.HomeID] = struct{}{}
		inRound[fixture.AwayID] = struct{}{}
	}
	for _, id := range alive {
		if _, played := inRound[id]; !played {
			winnerIDs = append(winnerIDs, id)
		}
	}

	if len(winnerIDs) < 2 {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.StatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete tournament %d: %w", tournamentID, err)
		}
		s.broadcast(tournamentID, "TOURNAMENT_COMPLETED", winnerIDs)
		return []*models.Fixture{}, nil
	}

	winners, err := s.playerRepo.ListByIDs(ctx, winnerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load winners: %w", err)
	}
	// Restore bracket order; ListByIDs returns id order.
	byID := make(map[int]*models.Player, len(winners))
	for _, w := range winners {
		byID[w.ID] = w
	}
	ordered := make([]*models.Player, 0, len(winnerIDs))
	for _, id := range winnerIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	nextStart := lastDate.AddDate(0, 0, 1)
	fixtures, err := scheduling.PairWinners(tournamentID, ordered, currentRound+1, nextStart, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to pair round %d: %w", currentRound+1, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	for _, fixture := range fixtures {
		if err = s.fixtureRepo.Create(ctx, tx, fixture); err != nil {
			return nil, fmt.Errorf("failed to persist round %d fixture: %w", currentRound+1, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.broadcast(tournamentID, "ROUND_ADVANCED", fixtures)
	return fixtures, nil
}

// aliveKnockoutPlayers returns roster ids minus everyone who has lost a
// fixture, in id order.
func (s *fixtureService) aliveKnockoutPlayers(ctx context.Context, tournamentID int) ([]int, error) {
	rows, err := s.standingRepo.ListByTournament(ctx, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for tournament %d: %w", tournamentID, err)
	}
	results, err := s.resultRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for tournament %d: %w", tournamentID, err)
	}

	eliminated := make(map[int]struct{})
	for _, result := range results {
		if result.HomeScore > result.AwayScore {
			eliminated[result.AwayID] = struct{}{}
		} else if result.AwayScore > result.HomeScore {
			eliminated[result.HomeID] = struct{}{}
		}
	}

	alive := make([]int, 0, len(rows))
	for _, row := range rows {
		if _, out := eliminated[row.PlayerID]; !out {
			alive = append(alive, row.PlayerID)
		}
	}
	return alive, nil
}

func (s *fixtureService) loadTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return tournament, nil
}

// conflictGuard rejects a schedule when any detected conflict touches the
// given fixture, naming the clash in the error.
func conflictGuard(fixtures []*models.Fixture, fixtureID int) error {
	for _, conflict := range scheduling.DetectConflicts(fixtures) {
		if !conflict.TouchesFixture(fixtureID) {
			continue
		}
		day := conflict.Date.Format("2006-01-02")
		if conflict.Type == scheduling.PlayerConflict {
			return fmt.Errorf("%w: player %d booked twice on %s (fixtures %v)",
				ErrScheduleConflict, conflict.PlayerID, day, conflict.FixtureIDs)
		}
		return fmt.Errorf("%w: venue %q double-booked on %s %s (fixtures %v)",
			ErrScheduleConflict, conflict.Venue, day, conflict.Kickoff, conflict.FixtureIDs)
	}
	return nil
}

func (s *fixtureService) broadcast(tournamentID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(live.RoomForTournament(tournamentID), live.Event{Type: eventType, Payload: payload})
}
