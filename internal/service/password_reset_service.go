package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"authgate/internal/email"
	"authgate/internal/repository"
)

const defaultResetTTL = 10 * time.Minute

// PasswordResetService emite y consume reset tokens de un solo uso.
// El token vive firmado en el cliente y espejado en la cuenta; consumirlo limpia el espejo.
type PasswordResetService struct {
	logger      *zap.Logger
	accounts    repository.AccountRepository
	tokens      *TokenService
	emailSender email.Sender
	clientURL   string
	ttl         time.Duration
}

func NewPasswordResetService(logger *zap.Logger, accounts repository.AccountRepository, tokens *TokenService, emailSender email.Sender, clientURL string, ttl time.Duration) *PasswordResetService {
	if ttl <= 0 {
		ttl = defaultResetTTL
	}
	return &PasswordResetService{
		logger:      logger,
		accounts:    accounts,
		tokens:      tokens,
		emailSender: emailSender,
		clientURL:   clientURL,
		ttl:         ttl,
	}
}

// RequestReset persiste un token nuevo (invalidando el anterior) y luego lo envía por email.
// Si el envío falla el flujo falla; reintentar regenera y sobrescribe.
func (s *PasswordResetService) RequestReset(ctx context.Context, emailAddr string) error {
	emailAddr = NormalizeEmail(emailAddr)
	if err := validation.Validate(emailAddr, validation.Required, is.Email); err != nil {
		return validationError(validation.Errors{"email": err})
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	token, err := s.tokens.Issue(PurposeReset, TokenClaims{AccountID: account.ID}, s.ttl)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.accounts.SetResetToken(ctx, account.ID, token); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	body, err := email.ResetBody(s.clientURL, token)
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.Send(ctx, account.Email, email.ResetSubject, body); err != nil {
		s.logger.Warn("send reset email failed", zap.Error(err), zap.String("account_id", account.ID))
		return ErrEmailSendFailure
	}
	return nil
}

// CompleteReset exige firma válida y que el valor guardado coincida; ambas cosas en una sola mutación del store.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	err := validation.Errors{
		"resetPasswordLink": validation.Validate(token, validation.Required),
		"newPassword":       validation.Validate(newPassword, passwordRules...),
	}.Filter()
	if err != nil {
		return validationError(err)
	}

	claims, err := s.tokens.Verify(PurposeReset, token)
	if err != nil {
		s.logger.Info("reset token rejected", zap.String("reason", tokenFailureReason(err)))
		return ErrExpiredOrInvalid
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.accounts.ConsumeResetToken(ctx, claims.AccountID, token, passwordHash); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.logger.Info("reset token rejected", zap.String("reason", "not_outstanding"))
			return ErrExpiredOrInvalid
		}
		return err
	}
	return nil
}
