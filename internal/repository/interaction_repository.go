package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// PostgresInteractionRepository is the production interaction log backed by
// the interactions table.
type PostgresInteractionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresInteractionRepository instantiates the repository.
func NewPostgresInteractionRepository(pool *pgxpool.Pool) *PostgresInteractionRepository {
	return &PostgresInteractionRepository{pool: pool}
}

// Append inserts one interaction row.
func (r *PostgresInteractionRepository) Append(ctx context.Context, row *domain.InteractionRow) error {
	const query = `
        INSERT INTO interactions (id, user_id, platform, ts, raw_incoming_message,
            identified_creator, discount_code_sent, conversation_status,
            follower_count, is_potential_influencer)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.pool.Exec(ctx, query,
		row.ID,
		row.UserID,
		row.Platform,
		row.Timestamp,
		row.RawIncomingMessage,
		row.IdentifiedCreator,
		row.DiscountCodeSent,
		row.ConversationStatus,
		row.FollowerCount,
		row.IsPotentialInfluencer,
	)
	return err
}

// Analytics aggregates per-creator, per-platform counts in SQL.
func (r *PostgresInteractionRepository) Analytics(ctx context.Context) (*domain.AnalyticsSummary, error) {
	const query = `
        SELECT COALESCE(identified_creator, 'unknown') AS creator,
               platform,
               COUNT(*) AS requests,
               COUNT(*) FILTER (WHERE conversation_status = 'completed') AS completed
        FROM interactions
        GROUP BY 1, 2`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &domain.AnalyticsSummary{Creators: make(map[string]domain.CreatorStats)}
	for rows.Next() {
		var creator string
		var platform domain.Platform
		var requests, completed int
		if err := rows.Scan(&creator, &platform, &requests, &completed); err != nil {
			return nil, err
		}

		stats, ok := summary.Creators[creator]
		if !ok {
			stats = domain.CreatorStats{
				CreatorHandle:     creator,
				PlatformBreakdown: make(map[domain.Platform]domain.PlatformStats),
			}
		}
		stats.TotalRequests += requests
		stats.TotalCompleted += completed
		stats.PlatformBreakdown[platform] = domain.PlatformStats{
			Requests:  requests,
			CodesSent: completed,
		}
		summary.Creators[creator] = stats

		summary.TotalRequests += requests
		summary.TotalCompleted += completed
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	summary.TotalCreators = len(summary.Creators)
	return summary, nil
}

// Clear is refused: the production log is append-only.
func (r *PostgresInteractionRepository) Clear(context.Context) error {
	return fmt.Errorf("clear is not supported on the postgres interaction log")
}
