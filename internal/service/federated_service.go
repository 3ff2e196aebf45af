package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"authgate/internal/domain"
	"authgate/internal/oauth"
	"authgate/internal/repository"
)

// FederatedService resuelve una identidad externa verificada a una cuenta local.
// Todos los proveedores siguen la misma secuencia: verify, find-or-create, issue.
type FederatedService struct {
	logger    *zap.Logger
	accounts  repository.AccountRepository
	sessions  *SessionService
	secret    []byte
	verifiers map[string]oauth.Verifier
}

func NewFederatedService(logger *zap.Logger, accounts repository.AccountRepository, sessions *SessionService, secret string, verifiers ...oauth.Verifier) *FederatedService {
	byProvider := make(map[string]oauth.Verifier, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			byProvider[v.Provider()] = v
		}
	}
	return &FederatedService{
		logger:    logger,
		accounts:  accounts,
		sessions:  sessions,
		secret:    []byte(secret),
		verifiers: byProvider,
	}
}

func (s *FederatedService) SignInWithAssertion(ctx context.Context, provider string, cred oauth.Credential) (Session, error) {
	verifier, ok := s.verifiers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return Session{}, ErrProviderNotSupported
	}

	assertion, err := verifier.Verify(ctx, cred)
	if err != nil {
		s.logger.Warn("federated assertion rejected", zap.String("provider", verifier.Provider()), zap.Error(err))
		return Session{}, fmt.Errorf("%w: %v", ErrAssertionVerification, err)
	}

	emailAddr := NormalizeEmail(assertion.Email)
	if !assertion.Verified || emailAddr == "" {
		return Session{}, ErrUnverifiedAssertion
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err == nil {
		return s.sessions.Issue(account)
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return Session{}, err
	}

	account, err = s.createAccount(ctx, emailAddr, assertion)
	if err != nil {
		return Session{}, err
	}
	return s.sessions.Issue(account)
}

func (s *FederatedService) createAccount(ctx context.Context, emailAddr string, assertion domain.IdentityAssertion) (domain.Account, error) {
	password, err := syntheticPassword(s.secret, emailAddr)
	if err != nil {
		return domain.Account{}, err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}

	name := strings.TrimSpace(assertion.Name)
	if name == "" {
		name = emailAddr
	}
	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        emailAddr,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.accounts.Create(ctx, account)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		return domain.Account{}, err
	}

	// Otro primer login ganó la carrera; la cuenta del ganador es la válida.
	existing, getErr := s.accounts.GetByEmail(ctx, emailAddr)
	if getErr != nil {
		return domain.Account{}, ErrEmailTaken
	}
	return existing, nil
}
