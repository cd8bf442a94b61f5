package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stayhub/stayhub-api/internal/domain"
	"github.com/stayhub/stayhub-api/internal/pkg/password"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string
	User      *domain.PublicUser
	ExpiresIn int // seconds, matches the token's actual expiry
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type tokenSigner interface {
	Sign(userID int64, username, role string) (string, error)
	Expiry() time.Duration
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

type service struct {
	users userStore
	jwt   tokenSigner
}

func NewService(users userStore, jwt tokenSigner) Service {
	return &service{users: users, jwt: jwt}
}

// Login deliberately reports the same failure for an unknown username and a
// wrong password, so callers can't enumerate accounts.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", domain.ErrMissingFields)
	}

	u, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		slog.Error("user lookup failed", "username", req.Username, "err", err)
		return nil, fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}

	ok, err := password.Verify(req.Password, u.PasswordHash)
	if err != nil {
		slog.Error("stored password hash is malformed", "user_id", u.UserID, "err", err)
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}

	token, err := s.jwt.Sign(u.UserID, u.Username, u.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{
		Token:     token,
		User:      u.Public(),
		ExpiresIn: int(s.jwt.Expiry().Seconds()),
	}, nil
}
