package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nmwangi/efootball-league/models"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByID(ctx context.Context, id int) (*models.Admin, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) scanAdmin(row *sql.Row) (*models.Admin, error) {
	var a models.Admin
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT id, name, email, password_hash, role, created_at FROM admins WHERE email = $1`
	return r.scanAdmin(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresAdminRepository) GetByID(ctx context.Context, id int) (*models.Admin, error) {
	query := `SELECT id, name, email, password_hash, role, created_at FROM admins WHERE id = $1`
	return r.scanAdmin(r.db.QueryRowContext(ctx, query, id))
}

// Stats feeds the admin dashboard landing page.
func (r *postgresAdminRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(*) FROM tournaments),
			(SELECT COUNT(*) FROM tournaments WHERE status = 'active'),
			(SELECT COUNT(*) FROM fixtures),
			(SELECT COUNT(*) FROM fixtures WHERE played),
			(SELECT COUNT(*) FROM payments WHERE status = 'success')`
	var s models.DashboardStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.PlayersTotal, &s.TournamentsTotal, &s.ActiveTournaments,
		&s.FixturesTotal, &s.FixturesPlayed, &s.PaymentsReceived,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
