package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"authgate/internal/domain"
	"authgate/internal/repository"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type captureSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *captureSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (s *captureSender) last(t *testing.T) sentMail {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatalf("expected an email to be sent")
	}
	return s.sent[len(s.sent)-1]
}

// tokenFromBody extrae el token que sigue a marker dentro del link del email.
func tokenFromBody(t *testing.T, body, marker string) string {
	t.Helper()
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("marker %q not found in body: %s", marker, body)
	}
	rest := body[idx+len(marker):]
	if end := strings.IndexAny(rest, "<\" \n"); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		t.Fatalf("empty token after %q", marker)
	}
	return rest
}

func newTestTokens() *TokenService {
	return NewTokenService("activation-secret", "session-secret", "reset-secret")
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seedAccount(t *testing.T, repo *repository.MemoryAccountRepository, id, name, emailAddr, password string, role domain.Role) domain.Account {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	account := domain.Account{
		ID:           id,
		Name:         name,
		Email:        emailAddr,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
