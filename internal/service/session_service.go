package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"authgate/internal/domain"
	"authgate/internal/repository"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// Session es lo que recibe el cliente tras un login: token y proyección pública.
type Session struct {
	Token   string               `json:"token"`
	Account domain.PublicAccount `json:"user"`
}

// SessionService verifica credenciales y emite tokens de sesión.
type SessionService struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
	tokens   *TokenService
	ttl      time.Duration
}

func NewSessionService(logger *zap.Logger, accounts repository.AccountRepository, tokens *TokenService, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{
		logger:   logger,
		accounts: accounts,
		tokens:   tokens,
		ttl:      ttl,
	}
}

// SignIn devuelve el mismo ErrInvalidCredentials si la cuenta no existe o la contraseña no coincide.
func (s *SessionService) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	emailAddr = NormalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			checkPassword("", password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !checkPassword(account.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.Issue(account)
}

// Issue emite un token de sesión para una cuenta ya autenticada.
func (s *SessionService) Issue(account domain.Account) (Session, error) {
	if strings.TrimSpace(account.ID) == "" {
		return Session{}, fmt.Errorf("issue session: empty account id")
	}
	token, err := s.tokens.Issue(PurposeSession, TokenClaims{AccountID: account.ID}, s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("issue session token: %w", err)
	}
	return Session{Token: token, Account: account.Public()}, nil
}
