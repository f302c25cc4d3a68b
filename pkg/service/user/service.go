package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/probelab/probelab-app/internal/pkg/auth"
	"github.com/probelab/probelab-app/internal/pkg/security"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/idgen"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("неверный email или пароль")

const accessTokenTTL = 15 * time.Minute

// Service authenticates accounts and issues token pairs.
type Service struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
}

func NewService(userRepo repository.UserRepository, jwtSecret []byte) *Service {
	return &Service{userRepo: userRepo, jwtSecret: jwtSecret}
}

// Login verifies credentials and returns a token pair.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.Status != model.UserStatusActive {
		return nil, fmt.Errorf("аккаунт заблокирован")
	}
	if !security.CheckPasswordHash(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(u)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.LoginResponse, error) {
	claims, err := auth.ParseToken(req.RefreshToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	userID, entityType, err := idgen.DecodePublicID(claims.UserID)
	if err != nil || entityType != idgen.EntityTypeUser {
		return nil, fmt.Errorf("invalid refresh token subject")
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Status != model.UserStatusActive {
		return nil, fmt.Errorf("аккаунт заблокирован")
	}
	return s.issueTokens(u)
}

func (s *Service) issueTokens(u *model.User) (*model.LoginResponse, error) {
	access, err := auth.GenerateToken(u.ID, u.GroupID, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, err := auth.GenerateRefreshToken(u.ID, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}
	return &model.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(accessTokenTTL).Unix(),
	}, nil
}

// EnsureAdmin seeds the configured admin account on first boot; existing
// installs are left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password must be configured")
	}
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		GroupID:      model.AdminGroupID,
		Status:       model.UserStatusActive,
		CreatedAt:    time.Now(),
	}
	if _, err := s.userRepo.Create(ctx, u); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	log.Printf("user: seeded admin account %s", email)
	return nil
}
