package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"authgate/internal/domain"
	"authgate/internal/repository"
)

const defaultRoleCacheTTL = time.Minute

// Guard resuelve la identidad de un token de sesión y comprueba roles.
type Guard struct {
	logger   *zap.Logger
	tokens   *TokenService
	accounts repository.AccountRepository
	roles    RoleCache
	roleTTL  time.Duration
}

// NewGuard crea el guard; roles puede ser nil y entonces cada chequeo lee del store.
func NewGuard(logger *zap.Logger, tokens *TokenService, accounts repository.AccountRepository, roles RoleCache, roleTTL time.Duration) *Guard {
	if roleTTL <= 0 {
		roleTTL = defaultRoleCacheTTL
	}
	return &Guard{
		logger:   logger,
		tokens:   tokens,
		accounts: accounts,
		roles:    roles,
		roleTTL:  roleTTL,
	}
}

// Authenticate devuelve el id de cuenta del token; cualquier fallo es ErrUnauthorized.
func (g *Guard) Authenticate(token string) (string, error) {
	claims, err := g.tokens.Verify(PurposeSession, token)
	if err != nil {
		return "", ErrUnauthorized
	}
	if claims.AccountID == "" {
		return "", ErrUnauthorized
	}
	return claims.AccountID, nil
}

// RequireRole es lectura y chequeo, sin mutación.
func (g *Guard) RequireRole(ctx context.Context, accountID string, role domain.Role) error {
	current, err := g.resolveRole(ctx, accountID)
	if err != nil {
		return err
	}
	if current != role {
		return ErrForbidden
	}
	return nil
}

func (g *Guard) resolveRole(ctx context.Context, accountID string) (domain.Role, error) {
	if g.roles != nil {
		role, ok, err := g.roles.Get(ctx, accountID)
		if err != nil {
			g.logger.Warn("role cache get failed", zap.Error(err))
		} else if ok {
			return role, nil
		}
	}

	account, err := g.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", ErrForbidden
		}
		return "", err
	}

	if g.roles != nil {
		if err := g.roles.Set(ctx, accountID, account.Role, g.roleTTL); err != nil {
			g.logger.Warn("role cache set failed", zap.Error(err))
		}
	}
	return account.Role, nil
}
