package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorlane/discount-agent/internal/domain"
)

func TestAnalyticsSummaryIncludesIdleCreators(t *testing.T) {
	h := newTestHarness(t, nil)
	analytics := NewAnalyticsService(h.store, h.service.registry, h.service.logger)

	h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me")
	h.process(t, domain.PlatformInstagram, "u2", "hello there")

	summary, err := analytics.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalCreators, "roster size, not distinct mentions")
	assert.Equal(t, 2, summary.TotalRequests)
	assert.Equal(t, 1, summary.TotalCompleted)

	mkbhd := summary.Creators["mkbhd"]
	assert.Equal(t, 1, mkbhd.TotalCompleted)
	assert.Equal(t, 1, mkbhd.PlatformBreakdown[domain.PlatformInstagram].CodesSent)

	// Never-mentioned creators still appear, zeroed.
	casey, ok := summary.Creators["casey_neistat"]
	require.True(t, ok)
	assert.Zero(t, casey.TotalRequests)
}

func TestAnalyticsSummaryPropagatesErrors(t *testing.T) {
	h := newTestHarness(t, failingInteractions{})
	analytics := NewAnalyticsService(failingInteractions{}, h.service.registry, h.service.logger)

	_, err := analytics.Summary(context.Background())
	assert.Error(t, err)
}
