package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/repositories"
	"github.com/nmwangi/efootball-league/utils"
)

type AuthService interface {
	SignIn(ctx context.Context, creds models.Credentials) (string, *models.Admin, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

type authService struct {
	adminRepo repositories.AdminRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

func NewAuthService(adminRepo repositories.AdminRepository, jwtSecret []byte, tokenTTL time.Duration, logger *slog.Logger) AuthService {
	return &authService{
		adminRepo: adminRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// SignIn checks the credentials against the stored bcrypt hash and issues
// a signed token on success.
func (s *authService) SignIn(ctx context.Context, creds models.Credentials) (string, *models.Admin, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if !utils.CheckPasswordHash(creds.Password, admin.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateAdminToken(admin.ID, admin.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	s.logger.InfoContext(ctx, "admin signed in", slog.Int("admin_id", admin.ID))
	admin.PasswordHash = ""
	return token, admin, nil
}

func (s *authService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.adminRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return stats, nil
}
