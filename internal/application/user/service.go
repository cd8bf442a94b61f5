package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stayhub/stayhub-api/internal/domain"
	"github.com/stayhub/stayhub-api/internal/pkg/password"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.PublicUser, error)
	GetInfo(ctx context.Context, userID int64) (*domain.PublicUser, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID int64) (*domain.User, error)
	NextID(ctx context.Context) (int64, error)
	Put(ctx context.Context, u *domain.User) error
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.PublicUser, error) {
	if req.Username == "" || req.Password == "" || req.Email == "" {
		return nil, fmt.Errorf("username, password and email are required: %w", domain.ErrMissingFields)
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("register: %w", domain.ErrUsernameTaken)
	} else if !errors.Is(err, domain.ErrNotFound) {
		slog.Error("username lookup failed", "username", req.Username, "err", err)
		return nil, fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("register: %w", domain.ErrEmailTaken)
	} else if !errors.Is(err, domain.ErrNotFound) {
		slog.Error("email lookup failed", "email", req.Email, "err", err)
		return nil, fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.NextID(ctx)
	if err != nil {
		slog.Error("user id allocation failed", "err", err)
		return nil, fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}
	u := &domain.User{
		UserID:       id,
		Username:     req.Username,
		PasswordHash: hash,
		Nickname:     nickname,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         normalizeRole(req.Role),
		Status:       domain.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, u); err != nil {
		slog.Error("persist user failed", "user_id", id, "err", err)
		return nil, fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}
	return u.Public(), nil
}

func (s *service) GetInfo(ctx context.Context, userID int64) (*domain.PublicUser, error) {
	u, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	if err != nil {
		slog.Error("user lookup failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}
	return u.Public(), nil
}

// normalizeRole applies the whitelist policy: only the known role tags are
// accepted, everything else falls back to the least-privileged one.
func normalizeRole(role string) string {
	switch role {
	case domain.RoleMerchant, domain.RoleAdmin:
		return role
	default:
		return domain.RoleMerchant
	}
}
