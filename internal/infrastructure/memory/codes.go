// Package memory holds the in-process verification-code store. It is the
// default backend for single-process deployments; state is lost on restart,
// so a code issued before a restart simply fails verification afterwards.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stayhub/stayhub-api/internal/domain"
)

// CodeStore is a mutex-guarded map keyed by email. The mutex covers each
// whole operation, so Put/CompareAndSwap/Delete never interleave per key.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]domain.VerificationCode
}

func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]domain.VerificationCode)}
}

func (s *CodeStore) Get(_ context.Context, email string) (*domain.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	if !ok {
		return nil, fmt.Errorf("code for %s: %w", email, domain.ErrNotFound)
	}
	return &c, nil
}

// Put unconditionally overwrites any existing entry for the email.
func (s *CodeStore) Put(_ context.Context, email string, c *domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = *c
	return nil
}

// CompareAndSwap replaces the entry only while it still equals prev.
// Returns domain.ErrConflict when the entry is missing or has changed.
func (s *CodeStore) CompareAndSwap(_ context.Context, email string, prev, next *domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.codes[email]
	if !ok || cur != *prev {
		return fmt.Errorf("code for %s changed concurrently: %w", email, domain.ErrConflict)
	}
	s.codes[email] = *next
	return nil
}

func (s *CodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}
