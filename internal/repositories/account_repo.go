package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/barberia/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const uniqueViolationCode = "23505"

type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (full_name, email, password_hash, active)
              VALUES ($1, $2, $3, true)
              RETURNING id, active, created_at, last_access_at`

	err := r.pool.QueryRow(ctx, query, account.FullName, account.Email, account.PasswordHash).
		Scan(&account.ID, &account.Active, &account.CreatedAt, &account.LastAccessAt)
	if err != nil {
		// The uniqueness constraint is the authoritative duplicate check;
		// the service's pre-lookup only exists for a friendlier fast path.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT id, full_name, email, password_hash, active, created_at, last_access_at
              FROM accounts WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT id, full_name, email, password_hash, active, created_at, last_access_at
              FROM accounts WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresAccountRepository) GetActiveByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT id, full_name, email, password_hash, active, created_at, last_access_at
              FROM accounts WHERE email = $1 AND active = true`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresAccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE accounts SET password_hash = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) UpdateLastAccess(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE accounts SET last_access_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update last access: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) scanOne(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.FullName, &account.Email, &account.PasswordHash,
		&account.Active, &account.CreatedAt, &account.LastAccessAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}
