package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marketpulse/backend/models"
	"github.com/marketpulse/backend/repository"
	"github.com/marketpulse/backend/utils"
)

// TokenIssuer mints an access token for an authenticated email.
type TokenIssuer interface {
	GenerateJWT(email string) (string, time.Time, error)
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// ProfilePatch carries the mutable profile fields. Only Username is honoured.
type ProfilePatch struct {
	Username *string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, tokens: tokens, logger: logger}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	switch {
	case email == "":
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case username == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	case in.Password == "":
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	case len(in.Password) > utils.MaxPasswordBytes:
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, utils.MaxPasswordBytes)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Username:  username,
		Password:  hashedPassword,
		Watchlist: []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Login verifies credentials. Unknown email and wrong password yield the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.IssueToken(user)
}

func (s *UserService) IssueToken(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateJWT(user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserService) GetProfile(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, email string, patch ProfilePatch) (*models.User, error) {
	user, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	if patch.Username == nil {
		return user, nil
	}

	username := strings.TrimSpace(*patch.Username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if err := s.users.UpdateUsername(ctx, user.ID, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update username: %w", err)
	}
	user.Username = username
	return user, nil
}

func (s *UserService) GetWatchlist(ctx context.Context, email string) ([]string, error) {
	user, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	return user.SortedWatchlist(), nil
}

// AddToWatchlist is a no-op when the symbol is already present.
func (s *UserService) AddToWatchlist(ctx context.Context, email, symbol string) ([]string, error) {
	return s.mutateWatchlist(ctx, email, symbol, (*models.User).AddSymbol)
}

// RemoveFromWatchlist is a no-op when the symbol is absent.
func (s *UserService) RemoveFromWatchlist(ctx context.Context, email, symbol string) ([]string, error) {
	return s.mutateWatchlist(ctx, email, symbol, (*models.User).RemoveSymbol)
}

func (s *UserService) mutateWatchlist(ctx context.Context, email, symbol string, apply func(*models.User, string) bool) ([]string, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	user, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	if !apply(user, symbol) {
		return user.SortedWatchlist(), nil
	}

	if err := s.users.UpdateWatchlist(ctx, user.ID, user.Watchlist); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update watchlist: %w", err)
	}
	return user.SortedWatchlist(), nil
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
