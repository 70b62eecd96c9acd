package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// PostgresIssuanceRepository enforces one code per (platform, user_id)
// through the issuances primary key.
type PostgresIssuanceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresIssuanceRepository instantiates the repository.
func NewPostgresIssuanceRepository(pool *pgxpool.Pool) *PostgresIssuanceRepository {
	return &PostgresIssuanceRepository{pool: pool}
}

// Lookup fetches the issuance for the key.
func (r *PostgresIssuanceRepository) Lookup(ctx context.Context, platform domain.Platform, userID string) (*domain.Issuance, error) {
	const query = `
        SELECT platform, user_id, creator_id, code
        FROM issuances WHERE platform=$1 AND user_id=$2`
	var iss domain.Issuance
	err := r.pool.QueryRow(ctx, query, platform, userID).Scan(&iss.Platform, &iss.UserID, &iss.CreatorID, &iss.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &iss, nil
}

// Record inserts first-wins: a conflicting insert is a no-op and the
// existing row is returned, so two racing writers converge on one code.
func (r *PostgresIssuanceRepository) Record(ctx context.Context, issuance domain.Issuance) (*domain.Issuance, error) {
	const insert = `
        INSERT INTO issuances (platform, user_id, creator_id, code)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (platform, user_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insert, issuance.Platform, issuance.UserID, issuance.CreatorID, issuance.Code); err != nil {
		return nil, err
	}

	winner, err := r.Lookup(ctx, issuance.Platform, issuance.UserID)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, fmt.Errorf("issuance for %s/%s vanished after insert", issuance.Platform, issuance.UserID)
	}
	return winner, nil
}

// Clear is refused on the production registry.
func (r *PostgresIssuanceRepository) Clear(context.Context) error {
	return fmt.Errorf("clear is not supported on the postgres issuance registry")
}
