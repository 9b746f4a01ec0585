package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/apperror"
	"github.com/aura-events/backend/pkg/utils"
)

var (
	ErrSignupFieldsRequired = apperror.Validation("Name, email, and password are required")
	ErrPasswordTooShort     = apperror.Validation("Password must be at least 6 characters")
	ErrInvalidEmail         = apperror.Validation("Invalid email format")
	ErrEmailTaken           = apperror.Validation("Email already registered")
	ErrLoginFieldsRequired  = apperror.Validation("Email and password are required")
	ErrBadCredentials       = apperror.Auth("Invalid email or password")
	ErrTokenRejected        = apperror.Auth("Invalid or expired token")
	ErrSessionSuperseded    = apperror.Auth("Session expired. Please login again.")
)

// Result is returned by Signup and Login.
type Result struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Service issues and checks credentials. Each user holds at most one live
// token; issuing a new one invalidates the previous.
type Service struct {
	repo         *Repository
	jwt          *JWTService
	passwordCost int
	logger       *zap.Logger
}

// NewService creates an auth service. A passwordCost of zero uses bcrypt's default.
func NewService(repo *Repository, jwt *JWTService, passwordCost int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, jwt: jwt, passwordCost: passwordCost, logger: logger}
}

// Signup creates a user and logs them in.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*Result, error) {
	name = strings.TrimSpace(name)
	email = utils.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrSignupFieldsRequired
	}
	if len(password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if !utils.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	hash, err := utils.HashPassword(password, s.passwordCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, name, email, hash)
	if errors.Is(err, errEmailExists) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return s.issue(ctx, user)
}

// Login checks the password and issues a fresh token, replacing any earlier one.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrLoginFieldsRequired
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, errUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrBadCredentials
	}
	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user *models.User) (*Result, error) {
	token, tokenID, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, apperror.Internal("failed to generate token", err)
	}
	if err := s.repo.ReplaceSession(ctx, user.ID, tokenID); err != nil {
		return nil, apperror.Internal("failed to store session", err)
	}
	return &Result{Token: token, User: user.ToPublic()}, nil
}

// Authenticate returns the caller behind token if it is the user's live session.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, ErrTokenRejected
	}
	current, err := s.repo.SessionTokenID(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.Internal("failed to load session", err)
	}
	if current != claims.ID {
		return nil, ErrSessionSuperseded
	}
	return &models.Identity{UserID: claims.UserID, Email: claims.Email, TokenID: claims.ID}, nil
}

// Logout ends the session held by token. A token that is no longer live is rejected.
func (s *Service) Logout(ctx context.Context, token string) error {
	id, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, id.UserID, id.TokenID); err != nil {
		return apperror.Internal("failed to delete session", err)
	}
	s.logger.Info("user logged out", zap.String("user_id", id.UserID.String()))
	return nil
}
