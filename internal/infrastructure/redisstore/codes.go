// Package redisstore backs the verification-code store with Redis so codes
// survive process restarts and are shared across replicas.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stayhub/stayhub-api/internal/config"
	"github.com/stayhub/stayhub-api/internal/domain"
)

const keyPrefix = "recovery:code:"

// casScript swaps the value only while it still equals the caller's snapshot.
// KEEPTTL preserves the expiry set when the code was issued.
var casScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  redis.call('SET', KEYS[1], ARGV[2], 'KEEPTTL')
  return 1
end
return 0
`)

type CodeStore struct {
	rdb *redis.Client
}

func NewCodeStore(cfg *config.Config) *CodeStore {
	return &CodeStore{rdb: redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})}
}

func (s *CodeStore) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("code for %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var c domain.VerificationCode
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal verification code: %w", err)
	}
	return &c, nil
}

// Put unconditionally overwrites any existing entry for the email. The key
// expiry stretches past the issue window because a reset window opened just
// before the issue window closes must still find the entry.
func (s *CodeStore) Put(ctx context.Context, email string, c *domain.VerificationCode) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	ttl := time.Until(time.Unix(c.IssuedExpiry, 0).Add(2 * time.Minute))
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.rdb.Set(ctx, keyPrefix+email, raw, ttl).Err()
}

// CompareAndSwap replaces the entry only while it still equals prev. The
// comparison runs server-side in a Lua script, so it is atomic across
// replicas. Returns domain.ErrConflict when the entry is missing or changed.
func (s *CodeStore) CompareAndSwap(ctx context.Context, email string, prev, next *domain.VerificationCode) error {
	prevRaw, err := json.Marshal(prev)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	nextRaw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	n, err := casScript.Run(ctx, s.rdb, []string{keyPrefix + email}, prevRaw, nextRaw).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("code for %s changed concurrently: %w", email, domain.ErrConflict)
	}
	return nil
}

func (s *CodeStore) Delete(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, keyPrefix+email).Err()
}
