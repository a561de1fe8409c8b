/**
 * @description
 * PostgreSQL persistence for accounts. All lockout-field updates go through
 * the Mutate methods, which re-read the row under FOR UPDATE and write the
 * result back in the same transaction, so concurrent login attempts against
 * one account serialize at the database.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/secsys/security-service/internal/domain"
)

// AccountRepository defines the interface for account storage.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	MutateByUsername(ctx context.Context, username string, fn func(*domain.Account) error) (*domain.Account, error)
	MutateByID(ctx context.Context, id string, fn func(*domain.Account) error) (*domain.Account, error)
}

// PostgresAccountRepository is the PostgreSQL implementation of AccountRepository.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new instance of PostgresAccountRepository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `id, username, password_hash, failed_login_attempts, last_failed_login_at,
	is_locked, lockout_until, is_two_factor_enabled, otp_secret, phone_number, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.FailedLoginAttempts,
		&account.LastFailedLoginAt,
		&account.IsLocked,
		&account.LockoutUntil,
		&account.IsTwoFactorEnabled,
		&account.OTPSecret,
		&account.PhoneNumber,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Create inserts a new account record. A unique violation on the username
// maps to domain.ErrUsernameTaken.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `
        INSERT INTO accounts (username, password_hash, otp_secret, phone_number)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + accountColumns

	created, err := scanAccount(r.db.QueryRow(ctx, query,
		account.Username,
		account.PasswordHash,
		account.OTPSecret,
		account.PhoneNumber,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}
	return created, nil
}

// FindByUsername looks an account up by its exact (case-sensitive) username.
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccount(r.db.QueryRow(ctx, query, username))
}

// FindByID looks an account up by id.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// MutateByUsername applies fn to the row selected by username under a row
// lock and persists the result. fn returning an error rolls the transaction
// back with nothing written.
func (r *PostgresAccountRepository) MutateByUsername(ctx context.Context, username string, fn func(*domain.Account) error) (*domain.Account, error) {
	return r.mutate(ctx, `WHERE username = $1`, username, fn)
}

// MutateByID is MutateByUsername keyed by account id.
func (r *PostgresAccountRepository) MutateByID(ctx context.Context, id string, fn func(*domain.Account) error) (*domain.Account, error) {
	return r.mutate(ctx, `WHERE id = $1`, id, fn)
}

func (r *PostgresAccountRepository) mutate(ctx context.Context, where string, arg any, fn func(*domain.Account) error) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE locks the row so concurrent mutations serialize.
	query := `SELECT ` + accountColumns + ` FROM accounts ` + where + ` FOR UPDATE`
	account, err := scanAccount(tx.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}

	if err := fn(account); err != nil {
		return nil, err
	}

	update := `
        UPDATE accounts
        SET password_hash = $2,
            failed_login_attempts = $3,
            last_failed_login_at = $4,
            is_locked = $5,
            lockout_until = $6,
            is_two_factor_enabled = $7,
            otp_secret = $8,
            phone_number = $9,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := tx.Exec(ctx, update,
		account.ID,
		account.PasswordHash,
		account.FailedLoginAttempts,
		account.LastFailedLoginAt,
		account.IsLocked,
		account.LockoutUntil,
		account.IsTwoFactorEnabled,
		account.OTPSecret,
		account.PhoneNumber,
	); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	account.UpdatedAt = time.Now()
	return account, nil
}
