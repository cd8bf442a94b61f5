package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stayhub/stayhub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeStore_GetMissing(t *testing.T) {
	s := NewCodeStore()
	_, err := s.Get(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCodeStore_PutOverwrites(t *testing.T) {
	s := NewCodeStore()
	ctx := context.Background()
	exp := time.Now().Add(5 * time.Minute).Unix()

	require.NoError(t, s.Put(ctx, "a@x.com", &domain.VerificationCode{Code: "111111", IssuedExpiry: exp, Verified: true}))
	require.NoError(t, s.Put(ctx, "a@x.com", &domain.VerificationCode{Code: "222222", IssuedExpiry: exp}))

	c, err := s.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", c.Code)
	assert.False(t, c.Verified)
}

func TestCodeStore_CompareAndSwap(t *testing.T) {
	s := NewCodeStore()
	ctx := context.Background()
	issued := domain.VerificationCode{Code: "123456", IssuedExpiry: time.Now().Add(5 * time.Minute).Unix()}
	require.NoError(t, s.Put(ctx, "a@x.com", &issued))

	verified := issued
	verified.Verified = true
	verified.VerifiedExpiry = time.Now().Add(2 * time.Minute).Unix()
	require.NoError(t, s.CompareAndSwap(ctx, "a@x.com", &issued, &verified))

	got, err := s.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, got.Verified)

	// A second swap from the stale snapshot must fail.
	err = s.CompareAndSwap(ctx, "a@x.com", &issued, &verified)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestCodeStore_CompareAndSwap_MissingEntry(t *testing.T) {
	s := NewCodeStore()
	c := domain.VerificationCode{Code: "123456"}
	err := s.CompareAndSwap(context.Background(), "a@x.com", &c, &c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestCodeStore_Delete(t *testing.T) {
	s := NewCodeStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "a@x.com", &domain.VerificationCode{Code: "123456"}))
	require.NoError(t, s.Delete(ctx, "a@x.com"))
	_, err := s.Get(ctx, "a@x.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Deleting an absent entry is not an error.
	require.NoError(t, s.Delete(ctx, "a@x.com"))
}

func TestCodeStore_ConcurrentSwaps_ExactlyOneWins(t *testing.T) {
	s := NewCodeStore()
	ctx := context.Background()
	issued := domain.VerificationCode{Code: "123456", IssuedExpiry: time.Now().Add(5 * time.Minute).Unix()}
	require.NoError(t, s.Put(ctx, "a@x.com", &issued))

	const n = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := issued
			next.Verified = true
			next.VerifiedExpiry = int64(i) + 1
			if s.CompareAndSwap(ctx, "a@x.com", &issued, &next) == nil {
				wins <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}
