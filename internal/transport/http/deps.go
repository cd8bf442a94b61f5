package http

import (
	"context"

	"github.com/stayhub/stayhub-api/internal/application/recovery"
	"github.com/stayhub/stayhub-api/internal/domain"
	"github.com/stayhub/stayhub-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/stayhub/stayhub-api/internal/infrastructure/jwt"
	"github.com/stayhub/stayhub-api/internal/infrastructure/smtp"
)

// UserRepository is the minimal interface the router requires from a user
// store. Absence is reported as domain.ErrNotFound, not as an exceptional
// failure.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID int64) (*domain.User, error)
	NextID(ctx context.Context) (int64, error)
	Put(ctx context.Context, u *domain.User) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

var _ UserRepository = (*dynamo.UserRepo)(nil)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	Codes       recovery.CodeStore
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
