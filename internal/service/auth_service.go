package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/models"
	"writerid-portal/internal/repository"
	"writerid-portal/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthService handles registration and login.
type AuthService struct {
	uow        *repository.UnitOfWork
	jwtManager *utils.JWTManager
	logger     *logrus.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(uow *repository.UnitOfWork, jwtManager *utils.JWTManager, logger *logrus.Logger) *AuthService {
	return &AuthService{
		uow:        uow,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register creates an account. Emails are stored lowercased and must be unique.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if req.Password != req.ConfirmPassword {
		return nil, validationError("passwords do not match")
	}

	_, err := s.uow.Users.First(ctx, repository.ByEmail(email))
	if err == nil {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
	}
	if err := s.uow.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.uow.Users.First(ctx, repository.ByEmail(normalizeEmail(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(s.jwtManager.ExpireTime()),
		User:        UserInfo(user),
	}, nil
}

// Me returns the active user behind a token.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return loadActive(ctx, s.uow.Users, "user", id)
}

// UserInfo converts a user row to its public view.
func UserInfo(u *models.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
