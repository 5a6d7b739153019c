package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/nmwangi/efootball-league/models"
)

var (
	ErrFixtureNotFound          = errors.New("fixture not found")
	ErrFixtureTournamentInvalid = errors.New("fixture tournament conflict or invalid")
	ErrFixturePlayerInvalid     = errors.New("fixture player conflict or invalid")
)

type FixtureRepository interface {
	Create(ctx context.Context, exec SQLExecutor, fixture *models.Fixture) error
	GetByID(ctx context.Context, id int) (*models.Fixture, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, played *bool) ([]*models.Fixture, error)
	ListByPlayer(ctx context.Context, playerID int) ([]*models.Fixture, error)
	UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, fixture *models.Fixture) error
	SetPlayed(ctx context.Context, exec SQLExecutor, id int, played bool) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	MaxRound(ctx context.Context, tournamentID int) (int, error)
}

type postgresFixtureRepository struct {
	db *sql.DB
}

func NewPostgresFixtureRepository(db *sql.DB) FixtureRepository {
	return &postgresFixtureRepository{db: db}
}

func (r *postgresFixtureRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const fixtureColumns = `id, tournament_id, home_id, away_id, match_date, kickoff, venue, played, round, match_number, created_at`

func (r *postgresFixtureRepository) Create(ctx context.Context, exec SQLExecutor, fixture *models.Fixture) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO fixtures
			(tournament_id, home_id, away_id, match_date, kickoff, venue, played, round, match_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		fixture.TournamentID, fixture.HomeID, fixture.AwayID, fixture.MatchDate,
		fixture.Kickoff, fixture.Venue, fixture.Played, fixture.Round, fixture.MatchNumber,
	).Scan(&fixture.ID, &fixture.CreatedAt)
	return r.handleFixtureError(err)
}

func (r *postgresFixtureRepository) scanFixture(rowScanner interface{ Scan(...interface{}) error }) (*models.Fixture, error) {
	var f models.Fixture
	err := rowScanner.Scan(
		&f.ID, &f.TournamentID, &f.HomeID, &f.AwayID, &f.MatchDate,
		&f.Kickoff, &f.Venue, &f.Played, &f.Round, &f.MatchNumber, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFixtureNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *postgresFixtureRepository) GetByID(ctx context.Context, id int) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE id = $1`
	return r.scanFixture(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresFixtureRepository) ListByTournament(ctx context.Context, tournamentID int, round *int, played *bool) ([]*models.Fixture, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + fixtureColumns + ` FROM fixtures WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholder := 2
	if round != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholder))
		args = append(args, *round)
		placeholder++
	}
	if played != nil {
		queryBuilder.WriteString(" AND played = $" + strconv.Itoa(placeholder))
		args = append(args, *played)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, match_number ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	fixtures := make([]*models.Fixture, 0)
	for rows.Next() {
		f, errScan := r.scanFixture(rows)
		if errScan != nil {
			return nil, errScan
		}
		fixtures = append(fixtures, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (r *postgresFixtureRepository) ListByPlayer(ctx context.Context, playerID int) ([]*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures
		WHERE home_id = $1 OR away_id = $1
		ORDER BY match_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures for player %d: %w", playerID, err)
	}
	defer rows.Close()

	fixtures := make([]*models.Fixture, 0)
	for rows.Next() {
		f, errScan := r.scanFixture(rows)
		if errScan != nil {
			return nil, errScan
		}
		fixtures = append(fixtures, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (r *postgresFixtureRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, fixture *models.Fixture) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE fixtures
		SET match_date = $1, kickoff = $2, venue = $3
		WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, fixture.MatchDate, fixture.Kickoff, fixture.Venue, id)
	if err != nil {
		return r.handleFixtureError(err)
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

func (r *postgresFixtureRepository) SetPlayed(ctx context.Context, exec SQLExecutor, id int, played bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE fixtures SET played = $1 WHERE id = $2`, played, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

func (r *postgresFixtureRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM fixtures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

func (r *postgresFixtureRepository) DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM fixtures WHERE home_id = $1 OR away_id = $1`, playerID)
	return err
}

func (r *postgresFixtureRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM fixtures WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresFixtureRepository) MaxRound(ctx context.Context, tournamentID int) (int, error) {
	var round int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(round), 0) FROM fixtures WHERE tournament_id = $1`, tournamentID,
	).Scan(&round)
	if err != nil {
		return 0, fmt.Errorf("failed to find max round for tournament %d: %w", tournamentID, err)
	}
	return round, nil
}

func (r *postgresFixtureRepository) handleFixtureError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "fixtures_tournament_id_fkey":
			return ErrFixtureTournamentInvalid
		case "fixtures_home_id_fkey", "fixtures_away_id_fkey":
			return ErrFixturePlayerInvalid
		}
	}
	return err
}
