package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nmwangi/efootball-league/models"
)

var ErrStandingNotFound = errors.New("standing not found")

// StandingRepository persists the denormalized standings copy. Writers
// always replace a tournament's rows wholesale (delete + batch insert)
// so the copy can never drift from the result set it derives from.
type StandingRepository interface {
	ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, standings []*models.Standing) error
	ListByTournament(ctx context.Context, tournamentID int, ranked bool) ([]*models.Standing, error)
	GetOrCreate(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.Standing, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error
	ListTournamentIDsByPlayer(ctx context.Context, playerID int) ([]int, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const standingColumns = `id, tournament_id, player_id, played, wins, draws, losses, goals_for, goals_against, goal_difference, points, updated_at`

func (r *postgresStandingRepository) create(ctx context.Context, executor SQLExecutor, s *models.Standing) error {
	query := `
		INSERT INTO standings
			(tournament_id, player_id, played, wins, draws, losses, goals_for, goals_against, goal_difference, points, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	return executor.QueryRowContext(ctx, query,
		s.TournamentID, s.PlayerID, s.Played, s.Wins, s.Draws, s.Losses,
		s.GoalsFor, s.GoalsAgainst, s.GoalDifference, s.Points, s.UpdatedAt,
	).Scan(&s.ID)
}

func (r *postgresStandingRepository) ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, standings []*models.Standing) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM standings WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear standings for tournament %d: %w", tournamentID, err)
	}
	for _, s := range standings {
		s.TournamentID = tournamentID
		if err := r.create(ctx, executor, s); err != nil {
			return fmt.Errorf("failed to insert standing for player %d: %w", s.PlayerID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) scanStanding(rowScanner interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	var s models.Standing
	err := rowScanner.Scan(
		&s.ID, &s.TournamentID, &s.PlayerID, &s.Played, &s.Wins, &s.Draws, &s.Losses,
		&s.GoalsFor, &s.GoalsAgainst, &s.GoalDifference, &s.Points, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, tournamentID int, ranked bool) ([]*models.Standing, error) {
	query := `SELECT ` + standingColumns + ` FROM standings WHERE tournament_id = $1`
	if ranked {
		// player_id last for a stable order among full ties.
		query += ` ORDER BY points DESC, goal_difference DESC, goals_for DESC, player_id ASC`
	} else {
		query += ` ORDER BY player_id ASC`
	}

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, errScan := r.scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}

// GetOrCreate seeds a zero row for a player joining an in-progress league.
func (r *postgresStandingRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.Standing, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + standingColumns + ` FROM standings WHERE tournament_id = $1 AND player_id = $2`
	standing, err := r.scanStanding(executor.QueryRowContext(ctx, query, tournamentID, playerID))
	if err != nil {
		if errors.Is(err, ErrStandingNotFound) {
			zero := &models.Standing{TournamentID: tournamentID, PlayerID: playerID, UpdatedAt: time.Now()}
			if createErr := r.create(ctx, executor, zero); createErr != nil {
				return nil, fmt.Errorf("failed to create standing for t:%d p:%d: %w", tournamentID, playerID, createErr)
			}
			return zero, nil
		}
		return nil, fmt.Errorf("failed to get standing for t:%d p:%d: %w", tournamentID, playerID, err)
	}
	return standing, nil
}

func (r *postgresStandingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM standings WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresStandingRepository) DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM standings WHERE player_id = $1`, playerID)
	return err
}

func (r *postgresStandingRepository) ListTournamentIDsByPlayer(ctx context.Context, playerID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tournament_id FROM standings WHERE player_id = $1 ORDER BY tournament_id ASC`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if errScan := rows.Scan(&id); errScan != nil {
			return nil, errScan
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
