// Package recovery implements the email-based password-reset flow: a code
// is issued to a registered email, verified within its window, and spent by
// a single password reset.
package recovery

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/stayhub/stayhub-api/internal/domain"
	"github.com/stayhub/stayhub-api/internal/pkg/password"
)

const codeDigits = 6

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SendCodeResult struct {
	Email     string `json:"email"`
	ExpiresIn int    `json:"expire_time"` // seconds the code stays verifiable
}

type VerifyCodeResult struct {
	Verified  bool `json:"verified"`
	ExpiresIn int  `json:"expire_time"` // seconds the reset stays possible
}

// CodeStore is the keyed verification-code store. Implementations must make
// CompareAndSwap atomic per key so concurrent verify/reissue calls cannot
// interleave; see internal/infrastructure/{memory,redisstore,dynamo}.
type CodeStore interface {
	Get(ctx context.Context, email string) (*domain.VerificationCode, error)
	Put(ctx context.Context, email string, c *domain.VerificationCode) error
	CompareAndSwap(ctx context.Context, email string, prev, next *domain.VerificationCode) error
	Delete(ctx context.Context, email string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

type mailSender interface {
	SendEmail(to, subject, htmlBody string) (string, error)
}

type Service interface {
	SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResult, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type service struct {
	codes       CodeStore
	users       userStore
	mailer      mailSender
	codeTTL     time.Duration
	resetWindow time.Duration
	now         func() time.Time
}

type ServiceDeps struct {
	Codes       CodeStore
	Users       userStore
	Mailer      mailSender
	CodeTTL     time.Duration
	ResetWindow time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codes:       deps.Codes,
		users:       deps.Users,
		mailer:      deps.Mailer,
		codeTTL:     deps.CodeTTL,
		resetWindow: deps.ResetWindow,
		now:         time.Now,
	}
}

func (s *service) SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("send code: %w", domain.ErrEmailNotRegistered)
	}
	if err != nil {
		slog.Error("user lookup failed", "email", req.Email, "err", err)
		return nil, fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}

	code, err := randomCode(codeDigits)
	if err != nil {
		return nil, err
	}
	entry := &domain.VerificationCode{
		Code:         code,
		IssuedExpiry: s.now().Add(s.codeTTL).Unix(),
	}
	// Overwrites any prior entry for this email, including one already
	// verified — the caller must re-verify the new code.
	if err := s.codes.Put(ctx, req.Email, entry); err != nil {
		slog.Error("store verification code failed", "email", req.Email, "err", err)
		return nil, fmt.Errorf("code store: %w", domain.ErrStoreUnavailable)
	}

	// Fire-and-forget: a failed send never rolls back the issued code; the
	// failure lands in the log for the operator.
	go s.dispatchMail(u.Email, code)

	return &SendCodeResult{Email: req.Email, ExpiresIn: int(s.codeTTL.Seconds())}, nil
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, error) {
	stored, err := s.codes.Get(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("verify code: %w", domain.ErrInvalidOrExpiredCode)
	}
	if err != nil {
		slog.Error("code lookup failed", "email", req.Email, "err", err)
		return nil, fmt.Errorf("code store: %w", domain.ErrStoreUnavailable)
	}
	// The entry is left untouched on mismatch or expiry.
	if stored.Code != req.Code || s.now().Unix() >= stored.IssuedExpiry {
		return nil, fmt.Errorf("verify code: %w", domain.ErrInvalidOrExpiredCode)
	}

	next := *stored
	next.Verified = true
	next.VerifiedExpiry = s.now().Add(s.resetWindow).Unix()
	if err := s.codes.CompareAndSwap(ctx, req.Email, stored, &next); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			// A concurrent reissue or reset won the race; the caller's code
			// no longer stands.
			return nil, fmt.Errorf("verify code: %w", domain.ErrInvalidOrExpiredCode)
		}
		slog.Error("store verification code failed", "email", req.Email, "err", err)
		return nil, fmt.Errorf("code store: %w", domain.ErrStoreUnavailable)
	}

	return &VerifyCodeResult{Verified: true, ExpiresIn: int(s.resetWindow.Seconds())}, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	stored, err := s.codes.Get(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("reset password: %w", domain.ErrInvalidOrExpiredCode)
	}
	if err != nil {
		slog.Error("code lookup failed", "email", req.Email, "err", err)
		return fmt.Errorf("code store: %w", domain.ErrStoreUnavailable)
	}
	if !stored.Verified || s.now().Unix() >= stored.VerifiedExpiry {
		return fmt.Errorf("reset password: %w", domain.ErrInvalidOrExpiredCode)
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("reset password: %w", domain.ErrEmailNotRegistered)
	}
	if err != nil {
		slog.Error("user lookup failed", "email", req.Email, "err", err)
		return fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, u.UserID, hash); err != nil {
		slog.Error("persist password hash failed", "user_id", u.UserID, "err", err)
		return fmt.Errorf("user store: %w", domain.ErrStoreUnavailable)
	}
	// The code is single-use. The hash is already persisted, so a failed
	// delete is logged rather than surfaced.
	if err := s.codes.Delete(ctx, req.Email); err != nil {
		slog.Warn("failed to delete consumed verification code", "email", req.Email, "err", err)
	}
	return nil
}

func (s *service) dispatchMail(to, code string) {
	body := fmt.Sprintf(
		"<h1>Password Recovery</h1><p>Your verification code is: %s</p><p>The code expires in %d minutes.</p>",
		code, int(s.codeTTL.Minutes()),
	)
	messageID, err := s.mailer.SendEmail(to, "Password Recovery Code", body)
	if err != nil {
		slog.Error("recovery mail send failed", "to", to, "err", err)
		return
	}
	slog.Info("recovery mail sent", "to", to, "message_id", messageID)
}

func randomCode(digits int) (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
