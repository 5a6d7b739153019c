package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nmwangi/efootball-league/models"
)

var (
	ErrResultNotFound        = errors.New("result not found")
	ErrResultFixtureInvalid  = errors.New("result fixture conflict or invalid")
	ErrResultFixtureRecorded = errors.New("fixture already has a result recorded")
)

type ResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.Result) error
	GetByID(ctx context.Context, id int) (*models.Result, error)
	GetByFixture(ctx context.Context, fixtureID int) (*models.Result, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Result, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const resultColumns = `id, tournament_id, fixture_id, home_id, away_id, home_score, away_score, played_at, created_at`

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, result *models.Result) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO results
			(tournament_id, fixture_id, home_id, away_id, home_score, away_score, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		result.TournamentID, result.FixtureID, result.HomeID, result.AwayID,
		result.HomeScore, result.AwayScore, result.PlayedAt,
	).Scan(&result.ID, &result.CreatedAt)
	return r.handleResultError(err)
}

func (r *postgresResultRepository) scanResult(rowScanner interface{ Scan(...interface{}) error }) (*models.Result, error) {
	var res models.Result
	err := rowScanner.Scan(
		&res.ID, &res.TournamentID, &res.FixtureID, &res.HomeID, &res.AwayID,
		&res.HomeScore, &res.AwayScore, &res.PlayedAt, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *postgresResultRepository) GetByID(ctx context.Context, id int) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE id = $1`
	return r.scanResult(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresResultRepository) GetByFixture(ctx context.Context, fixtureID int) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE fixture_id = $1`
	return r.scanResult(r.db.QueryRowContext(ctx, query, fixtureID))
}

func (r *postgresResultRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Result, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + resultColumns + ` FROM results
		WHERE tournament_id = $1
		ORDER BY played_at ASC, id ASC`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	results := make([]*models.Result, 0)
	for rows.Next() {
		res, errScan := r.scanResult(rows)
		if errScan != nil {
			return nil, errScan
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *postgresResultRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrResultNotFound)
}

func (r *postgresResultRepository) DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM results WHERE home_id = $1 OR away_id = $1`, playerID)
	return err
}

func (r *postgresResultRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM results WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresResultRepository) handleResultError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "results_fixture_id_fkey":
			return ErrResultFixtureInvalid
		case "results_fixture_id_key":
			// Unique index on fixture_id keeps the 1:1 fixture-result link.
			return ErrResultFixtureRecorded
		}
	}
	return err
}
