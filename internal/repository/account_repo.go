package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"authgate/internal/domain"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("duplicate email")
)

// uniqueViolation es el SQLSTATE de Postgres para violaciones de UNIQUE.
const uniqueViolation = "23505"

// AccountRepository define el contrato de persistencia para cuentas.
// El store es el árbitro final de la unicidad del email y del consumo del reset token.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) error
	SetResetToken(ctx context.Context, id, token string) error
	// ConsumeResetToken rota el hash y limpia el token en una sola mutación,
	// solo si el valor guardado coincide con token.
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string) (domain.Account, error)
}

// DBTX es el subconjunto de pgx que usa el repositorio; lo cumplen *pgxpool.Pool y pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgAccountRepository implementa AccountRepository usando pgx.
type PgAccountRepository struct {
	db DBTX
}

func NewPgAccountRepository(db DBTX) *PgAccountRepository {
	return &PgAccountRepository{db: db}
}

const accountColumns = `id, name, email, password_hash, role, reset_token, created_at, updated_at`

func (r *PgAccountRepository) Create(ctx context.Context, account domain.Account) error {
	const query = `
		INSERT INTO accounts (id, name, email, password_hash, role, reset_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.ResetToken,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *PgAccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *PgAccountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}

func (r *PgAccountRepository) Update(ctx context.Context, account domain.Account) error {
	const query = `
		UPDATE accounts
		SET name = $2, password_hash = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		account.ID,
		account.Name,
		account.PasswordHash,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PgAccountRepository) SetResetToken(ctx context.Context, id, token string) error {
	const query = `
		UPDATE accounts
		SET reset_token = $2, updated_at = $3
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PgAccountRepository) ConsumeResetToken(ctx context.Context, id, token, passwordHash string) (domain.Account, error) {
	query := `
		UPDATE accounts
		SET password_hash = $3, reset_token = '', updated_at = $4
		WHERE id = $1 AND reset_token = $2 AND reset_token <> ''
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query, id, token, passwordHash, time.Now().UTC()))
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&role,
		&a.ResetToken,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Role = domain.Role(role)
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
