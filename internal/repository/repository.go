package repository

import (
	"context"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// InteractionRepository persists the append-only interaction log and serves
// the campaign analytics aggregation. Rows are never updated or deleted
// outside of the demo-only Clear.
type InteractionRepository interface {
	Append(ctx context.Context, row *domain.InteractionRow) error
	Analytics(ctx context.Context) (*domain.AnalyticsSummary, error)
	Clear(ctx context.Context) error
}

// IssuanceRepository is the first-wins code registry keyed by
// (platform, user_id). Record must be atomic: when two writers race, one
// wins and both observe the winning issuance.
type IssuanceRepository interface {
	// Lookup returns the existing issuance or nil when none was recorded.
	Lookup(ctx context.Context, platform domain.Platform, userID string) (*domain.Issuance, error)
	// Record stores the issuance unless one already exists for the key and
	// returns whichever issuance holds the key afterwards.
	Record(ctx context.Context, issuance domain.Issuance) (*domain.Issuance, error)
	Clear(ctx context.Context) error
}
