package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"authgate/internal/domain"
	"authgate/internal/email"
	"authgate/internal/repository"
)

const defaultActivationTTL = 5 * time.Minute

// RegistrationService lleva una cuenta de Unregistered a Active.
// El estado PendingActivation no se persiste: vive solo dentro del token de activación.
type RegistrationService struct {
	logger      *zap.Logger
	accounts    repository.AccountRepository
	tokens      *TokenService
	emailSender email.Sender
	clientURL   string
	ttl         time.Duration
}

func NewRegistrationService(logger *zap.Logger, accounts repository.AccountRepository, tokens *TokenService, emailSender email.Sender, clientURL string, ttl time.Duration) *RegistrationService {
	if ttl <= 0 {
		ttl = defaultActivationTTL
	}
	return &RegistrationService{
		logger:      logger,
		accounts:    accounts,
		tokens:      tokens,
		emailSender: emailSender,
		clientURL:   clientURL,
		ttl:         ttl,
	}
}

type RegistrationInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in RegistrationInput) validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, passwordRules...),
	)
}

// StartRegistration valida, comprueba que el email esté libre y envía el link de activación.
func (s *RegistrationService) StartRegistration(ctx context.Context, input RegistrationInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = NormalizeEmail(input.Email)
	if err := input.validate(); err != nil {
		return validationError(err)
	}

	_, err := s.accounts.GetByEmail(ctx, input.Email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return err
	}

	token, err := s.tokens.Issue(PurposeActivation, TokenClaims{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	}, s.ttl)
	if err != nil {
		return fmt.Errorf("issue activation token: %w", err)
	}

	body, err := email.ActivationBody(s.clientURL, token)
	if err != nil {
		return fmt.Errorf("render activation email: %w", err)
	}
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.Send(ctx, input.Email, email.ActivationSubject, body); err != nil {
		s.logger.Warn("send activation email failed", zap.Error(err), zap.String("email", input.Email))
		return ErrEmailSendFailure
	}
	return nil
}

// CompleteRegistration consume el token de activación y crea la cuenta.
// La unicidad del email la resuelve el store; el perdedor recibe ErrEmailTaken.
func (s *RegistrationService) CompleteRegistration(ctx context.Context, token string) (domain.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Account{}, ErrTokenMissing
	}

	claims, err := s.tokens.Verify(PurposeActivation, token)
	if err != nil {
		s.logger.Info("activation token rejected", zap.String("reason", tokenFailureReason(err)))
		return domain.Account{}, ErrExpiredOrInvalid
	}
	if claims.Email == "" || claims.Password == "" {
		return domain.Account{}, ErrExpiredOrInvalid
	}

	passwordHash, err := hashPassword(claims.Password)
	if err != nil {
		return domain.Account{}, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         claims.Name,
		Email:        claims.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.Account{}, ErrEmailTaken
		}
		return domain.Account{}, err
	}
	return account, nil
}
