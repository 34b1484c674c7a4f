package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/doriangym/contratos-backend/internal/domain"
	"github.com/doriangym/contratos-backend/internal/repo/postgres"
	"github.com/doriangym/contratos-backend/pkg/auth"
	"github.com/doriangym/contratos-backend/pkg/config"
	"github.com/doriangym/contratos-backend/pkg/logger"
)

type AdminService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Seed(ctx context.Context) error
}

type adminService struct {
	adminRepo postgres.AdminRepo
	config    *config.Config
}

func NewAdminService(adminRepo postgres.AdminRepo, cfg *config.Config) AdminService {
	return &adminService{
		adminRepo: adminRepo,
		config:    cfg,
	}
}

func (s *adminService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, admin.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewAdminToken(admin.ID, admin.Username, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Auth.AccessTokenTTL.Seconds()),
	}, nil
}

// Seed creates the configured admin credential at startup if it is absent.
// It never rotates an existing credential.
func (s *adminService) Seed(ctx context.Context) error {
	if s.config.Admin.Password == "" {
		logger.Warn("ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	existing, err := s.adminRepo.FindByUsername(ctx, s.config.Admin.Username)
	if err != nil {
		return fmt.Errorf("failed to check existing admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := argon2id.CreateHash(s.config.Admin.Password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if _, err := s.adminRepo.Create(ctx, s.config.Admin.Username, hash); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	logger.Info("Admin credential seeded", "username", s.config.Admin.Username)
	return nil
}
