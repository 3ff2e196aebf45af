package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"authgate/internal/domain"
	"authgate/internal/repository"
)

// ProfileService lee y actualiza el perfil de una cuenta existente.
// roles puede ser nil; si no, cada actualización invalida el rol cacheado de la cuenta.
type ProfileService struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
	roles    RoleCache
}

func NewProfileService(logger *zap.Logger, accounts repository.AccountRepository, roles RoleCache) *ProfileService {
	return &ProfileService{
		logger:   logger,
		accounts: accounts,
		roles:    roles,
	}
}

type ProfileUpdate struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (p ProfileUpdate) validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&p.Name, validation.Required),
	}
	if p.Password != "" {
		rules = append(rules, validation.Field(&p.Password, passwordRules...))
	}
	return validation.ValidateStruct(&p, rules...)
}

func (s *ProfileService) GetProfile(ctx context.Context, accountID string) (domain.PublicAccount, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domain.PublicAccount{}, ErrAccountNotFound
		}
		return domain.PublicAccount{}, err
	}
	return account.Public(), nil
}

// UpdateProfile cambia el nombre y, si viene, rota la contraseña.
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (domain.PublicAccount, error) {
	update.Name = strings.TrimSpace(update.Name)
	if err := update.validate(); err != nil {
		return domain.PublicAccount{}, validationError(err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domain.PublicAccount{}, ErrAccountNotFound
		}
		return domain.PublicAccount{}, err
	}

	account.Name = update.Name
	if update.Password != "" {
		passwordHash, err := hashPassword(update.Password)
		if err != nil {
			return domain.PublicAccount{}, err
		}
		account.PasswordHash = passwordHash
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domain.PublicAccount{}, ErrAccountNotFound
		}
		return domain.PublicAccount{}, err
	}
	if s.roles != nil {
		if err := s.roles.Invalidate(ctx, accountID); err != nil {
			s.logger.Warn("role cache invalidate failed", zap.Error(err))
		}
	}
	return account.Public(), nil
}
