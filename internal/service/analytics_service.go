package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/domain"
	"github.com/creatorlane/discount-agent/internal/repository"
)

// AnalyticsService serves campaign-wide aggregates over the interaction log.
type AnalyticsService struct {
	interactions repository.InteractionRepository
	registry     *campaign.Registry
	logger       *zap.Logger
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(interactions repository.InteractionRepository, registry *campaign.Registry, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{interactions: interactions, registry: registry, logger: logger}
}

// Summary aggregates the interaction log per creator and platform. Creators
// configured in the campaign but never mentioned still appear with zeroed
// stats so the report covers the whole roster.
func (s *AnalyticsService) Summary(ctx context.Context) (*domain.AnalyticsSummary, error) {
	summary, err := s.interactions.Analytics(ctx)
	if err != nil {
		s.logger.Error("analytics aggregation failed", zap.Error(err))
		return nil, err
	}

	snap := s.registry.Current()
	for _, id := range snap.CreatorIDs() {
		if _, ok := summary.Creators[id]; !ok {
			summary.Creators[id] = domain.CreatorStats{
				CreatorHandle:     id,
				PlatformBreakdown: map[domain.Platform]domain.PlatformStats{},
			}
		}
	}
	summary.TotalCreators = len(snap.CreatorIDs())
	return summary, nil
}
