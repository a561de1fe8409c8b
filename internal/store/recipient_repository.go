/**
 * @description
 * PostgreSQL persistence for joke digest recipients (email and SMS).
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/secsys/security-service/internal/domain"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// RecipientRepository defines the interface for recipient storage.
type RecipientRepository interface {
	Create(ctx context.Context, recipient *domain.Recipient) (*domain.Recipient, error)
	List(ctx context.Context) ([]domain.Recipient, error)
	ListActive(ctx context.Context, kind domain.RecipientKind) ([]domain.Recipient, error)
	ToggleActive(ctx context.Context, id string) (*domain.Recipient, error)
	Delete(ctx context.Context, id string) error
}

// PostgresRecipientRepository is the PostgreSQL implementation of RecipientRepository.
type PostgresRecipientRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRecipientRepository creates a new instance of PostgresRecipientRepository.
func NewPostgresRecipientRepository(db *pgxpool.Pool) *PostgresRecipientRepository {
	return &PostgresRecipientRepository{db: db}
}

// Create inserts a recipient. Duplicate addresses within a channel map to a
// conflict error for the handler.
func (r *PostgresRecipientRepository) Create(ctx context.Context, recipient *domain.Recipient) (*domain.Recipient, error) {
	query := `
        INSERT INTO recipients (kind, name, address, is_active)
        VALUES ($1, $2, $3, TRUE)
        RETURNING id, kind, name, address, is_active, created_at
    `
	var created domain.Recipient
	err := r.db.QueryRow(ctx, query, recipient.Kind, recipient.Name, recipient.Address).Scan(
		&created.ID, &created.Kind, &created.Name, &created.Address, &created.IsActive, &created.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("recipient address already registered: %w", err)
		}
		return nil, err
	}
	return &created, nil
}

// List returns every recipient, newest first.
func (r *PostgresRecipientRepository) List(ctx context.Context) ([]domain.Recipient, error) {
	query := `
        SELECT id, kind, name, address, is_active, created_at
        FROM recipients
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []domain.Recipient
	for rows.Next() {
		var recipient domain.Recipient
		if err := rows.Scan(&recipient.ID, &recipient.Kind, &recipient.Name, &recipient.Address, &recipient.IsActive, &recipient.CreatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	return recipients, rows.Err()
}

// ListActive returns the active recipients for one channel.
func (r *PostgresRecipientRepository) ListActive(ctx context.Context, kind domain.RecipientKind) ([]domain.Recipient, error) {
	query := `
        SELECT id, kind, name, address, is_active, created_at
        FROM recipients
        WHERE kind = $1 AND is_active = TRUE
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []domain.Recipient
	for rows.Next() {
		var recipient domain.Recipient
		if err := rows.Scan(&recipient.ID, &recipient.Kind, &recipient.Name, &recipient.Address, &recipient.IsActive, &recipient.CreatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	return recipients, rows.Err()
}

// ToggleActive flips a recipient's active flag and returns the new state.
func (r *PostgresRecipientRepository) ToggleActive(ctx context.Context, id string) (*domain.Recipient, error) {
	query := `
        UPDATE recipients
        SET is_active = NOT is_active
        WHERE id = $1
        RETURNING id, kind, name, address, is_active, created_at
    `
	var recipient domain.Recipient
	err := r.db.QueryRow(ctx, query, id).Scan(
		&recipient.ID, &recipient.Kind, &recipient.Name, &recipient.Address, &recipient.IsActive, &recipient.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, err
	}
	return &recipient, nil
}

// Delete removes a recipient.
func (r *PostgresRecipientRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recipients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecipientNotFound
	}
	return nil
}
