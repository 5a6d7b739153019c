package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nmwangi/efootball-league/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id int) (*models.Payment, error)
	GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id int, status models.PaymentStatus, receipt *string) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Payment, error)
	CountReceived(ctx context.Context) (int, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

const paymentColumns = `id, tournament_id, player_name, team_name, phone, amount_kes, checkout_id, reference, status, receipt, created_at, updated_at`

func (r *postgresPaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments
			(tournament_id, player_name, team_name, phone, amount_kes, checkout_id, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		p.TournamentID, p.PlayerName, p.TeamName, p.Phone, p.AmountKES,
		p.CheckoutID, p.Reference, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *postgresPaymentRepository) scanPayment(rowScanner interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	var p models.Payment
	err := rowScanner.Scan(
		&p.ID, &p.TournamentID, &p.PlayerName, &p.TeamName, &p.Phone, &p.AmountKES,
		&p.CheckoutID, &p.Reference, &p.Status, &p.Receipt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPaymentRepository) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPaymentRepository) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE checkout_id = $1`
	return r.scanPayment(r.db.QueryRowContext(ctx, query, checkoutID))
}

func (r *postgresPaymentRepository) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus, receipt *string) error {
	query := `UPDATE payments SET status = $1, receipt = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, receipt, time.Now(), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPaymentNotFound)
}

func (r *postgresPaymentRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tournament_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		p, errScan := r.scanPayment(rows)
		if errScan != nil {
			return nil, errScan
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *postgresPaymentRepository) CountReceived(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE status = 'success'`).Scan(&count)
	return count, err
}

func (r *postgresPaymentRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	_, err := executor.ExecContext(ctx, `DELETE FROM payments WHERE tournament_id = $1`, tournamentID)
	return err
}
