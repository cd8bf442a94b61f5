package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stayhub/stayhub-api/internal/domain"
	"github.com/stayhub/stayhub-api/internal/infrastructure/memory"
	"github.com/stayhub/stayhub-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, htmlBody string) (string, error) {
	args := m.Called(to, subject, htmlBody)
	return args.String(0), args.Error(1)
}

// --- builder ---

// newTestService wires a real in-memory code store to mocked collaborators
// and exposes the service struct so tests can move the clock.
func newTestService(us *mockUserStore, ml *mockMailer) (*service, *memory.CodeStore) {
	codes := memory.NewCodeStore()
	svc := NewService(ServiceDeps{
		Codes:       codes,
		Users:       us,
		Mailer:      ml,
		CodeTTL:     300 * time.Second,
		ResetWindow: 120 * time.Second,
	}).(*service)
	return svc, codes
}

func acceptMail(ml *mockMailer) chan struct{} {
	sent := make(chan struct{}, 1)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { sent <- struct{}{} }).
		Return("msg-id", nil)
	return sent
}

// --- SendCode ---

func TestSendCode_EmailNotRegistered(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc, _ := newTestService(us, &mockMailer{})
	_, err := svc.SendCode(context.Background(), SendCodeRequest{Email: "x@x.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmailNotRegistered))
}

func TestSendCode_StoreUnavailable(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection refused"))

	svc, _ := newTestService(us, &mockMailer{})
	_, err := svc.SendCode(context.Background(), SendCodeRequest{Email: "a@x.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestSendCode_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil)
	sent := acceptMail(ml)

	svc, codes := newTestService(us, ml)
	result, err := svc.SendCode(context.Background(), SendCodeRequest{Email: "a@x.com"})

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", result.Email)
	assert.Equal(t, 300, result.ExpiresIn)

	entry, err := codes.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Len(t, entry.Code, 6)
	assert.False(t, entry.Verified)
	assert.Greater(t, entry.IssuedExpiry, time.Now().Unix())

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("recovery mail was never dispatched")
	}
}

func TestSendCode_MailFailureDoesNotRollBackCode(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil)
	sent := make(chan struct{}, 1)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { sent <- struct{}{} }).
		Return("", errors.New("smtp down"))

	svc, codes := newTestService(us, ml)
	_, err := svc.SendCode(context.Background(), SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("recovery mail was never dispatched")
	}
	_, err = codes.Get(context.Background(), "a@x.com")
	assert.NoError(t, err)
}

func TestSendCode_OverwritesVerifiedEntry(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil)
	acceptMail(ml)

	svc, codes := newTestService(us, ml)
	ctx := context.Background()

	_, err := svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	first, err := codes.Get(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, VerifyCodeRequest{Email: "a@x.com", Code: first.Code})
	require.NoError(t, err)

	// Reissuing discards the verified state; the reset must be rejected.
	_, err = svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	err = svc.ResetPassword(ctx, ResetPasswordRequest{Email: "a@x.com", Code: first.Code, Password: "newpass1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))
}

// --- VerifyCode ---

func TestVerifyCode_NoEntry(t *testing.T) {
	svc, _ := newTestService(&mockUserStore{}, &mockMailer{})
	_, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{Email: "a@x.com", Code: "000000"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))
}

func TestVerifyCode_WrongCode_EntryStaysUsable(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil)
	acceptMail(ml)

	svc, codes := newTestService(us, ml)
	ctx := context.Background()
	_, err := svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	issued, err := codes.Get(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "000000", issued.Code)

	_, err = svc.VerifyCode(ctx, VerifyCodeRequest{Email: "a@x.com", Code: "000000"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))

	// The original entry is untouched and the correct code still works.
	result, err := svc.VerifyCode(ctx, VerifyCodeRequest{Email: "a@x.com", Code: issued.Code})
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, 120, result.ExpiresIn)
}

func TestVerifyCode_AfterIssuedExpiry(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil)
	acceptMail(ml)

	svc, codes := newTestService(us, ml)
	ctx := context.Background()
	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }
	_, err := svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	issued, err := codes.Get(ctx, "a@x.com")
	require.NoError(t, err)

	// Even the correct code fails once the issue window has closed.
	svc.now = func() time.Time { return issuedAt.Add(301 * time.Second) }
	_, err = svc.VerifyCode(ctx, VerifyCodeRequest{Email: "a@x.com", Code: issued.Code})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))
}

// --- ResetPassword ---

func TestResetPassword_NotVerified(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil)
	acceptMail(ml)

	svc, codes := newTestService(us, ml)
	ctx := context.Background()
	_, err := svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	issued, err := codes.Get(ctx, "a@x.com")
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, ResetPasswordRequest{Email: "a@x.com", Code: issued.Code, Password: "newpass1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))
}

func TestResetPassword_AfterVerifiedExpiry(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil)
	acceptMail(ml)

	svc, codes := newTestService(us, ml)
	ctx := context.Background()
	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }
	_, err := svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	issued, err := codes.Get(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, VerifyCodeRequest{Email: "a@x.com", Code: issued.Code})
	require.NoError(t, err)

	// verified=true but the reset window has elapsed.
	svc.now = func() time.Time { return issuedAt.Add(121 * time.Second) }
	err = svc.ResetPassword(ctx, ResetPasswordRequest{Email: "a@x.com", Code: issued.Code, Password: "newpass1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))
}

func TestResetPassword_UserVanished(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 1, Email: "a@x.com"}, nil).Once()
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	acceptMail(ml)

	svc, codes := newTestService(us, ml)
	ctx := context.Background()
	_, err := svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	issued, err := codes.Get(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, VerifyCodeRequest{Email: "a@x.com", Code: issued.Code})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, ResetPasswordRequest{Email: "a@x.com", Code: issued.Code, Password: "newpass1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmailNotRegistered))
}

func TestResetPassword_FullFlow_SingleUse(t *testing.T) {
	us := &mockUserStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: 7, Email: "a@x.com"}, nil)
	acceptMail(ml)

	var persisted string
	us.On("UpdatePasswordHash", mock.Anything, int64(7), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { persisted = args.String(2) }).
		Return(nil)

	svc, codes := newTestService(us, ml)
	ctx := context.Background()
	_, err := svc.SendCode(ctx, SendCodeRequest{Email: "a@x.com"})
	require.NoError(t, err)
	issued, err := codes.Get(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, VerifyCodeRequest{Email: "a@x.com", Code: issued.Code})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, ResetPasswordRequest{Email: "a@x.com", Code: issued.Code, Password: "newpass1"})
	require.NoError(t, err)

	// The persisted hash verifies against the new password.
	ok, err := password.Verify("newpass1", persisted)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = password.Verify("oldpass1", persisted)
	require.NoError(t, err)
	assert.False(t, ok)

	// The entry is consumed; a repeat reset fails.
	_, err = codes.Get(ctx, "a@x.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	err = svc.ResetPassword(ctx, ResetPasswordRequest{Email: "a@x.com", Code: issued.Code, Password: "newpass2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpiredCode))
}

func TestRandomCode_FixedLength(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}
