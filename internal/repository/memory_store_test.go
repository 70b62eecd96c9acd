package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorlane/discount-agent/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestMemoryStoreRecordFirstWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	winner, err := store.Record(ctx, domain.Issuance{
		Platform: domain.PlatformInstagram, UserID: "u1", CreatorID: "mkbhd", Code: "MARQUES20",
	})
	require.NoError(t, err)
	assert.Equal(t, "MARQUES20", winner.Code)

	// A second write for the same key returns the original holder untouched.
	winner, err = store.Record(ctx, domain.Issuance{
		Platform: domain.PlatformInstagram, UserID: "u1", CreatorID: "casey_neistat", Code: "CASEY15",
	})
	require.NoError(t, err)
	assert.Equal(t, "mkbhd", winner.CreatorID)
	assert.Equal(t, "MARQUES20", winner.Code)
}

func TestMemoryStoreLookup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.Lookup(ctx, domain.PlatformTikTok, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = store.Record(ctx, domain.Issuance{
		Platform: domain.PlatformTikTok, UserID: "u1", CreatorID: "lily_singh", Code: "LILY10",
	})
	require.NoError(t, err)

	got, err = store.Lookup(ctx, domain.PlatformTikTok, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "LILY10", got.Code)

	// Same user on another platform is a distinct key.
	got, err = store.Lookup(ctx, domain.PlatformWhatsApp, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreAnalytics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rows := []domain.InteractionRow{
		{ID: "1", UserID: "u1", Platform: domain.PlatformInstagram, IdentifiedCreator: strPtr("mkbhd"),
			DiscountCodeSent: strPtr("MARQUES20"), ConversationStatus: domain.StatusCompleted},
		{ID: "2", UserID: "u2", Platform: domain.PlatformTikTok, IdentifiedCreator: strPtr("mkbhd"),
			ConversationStatus: domain.StatusPendingCreatorInfo},
		{ID: "3", UserID: "u3", Platform: domain.PlatformInstagram, ConversationStatus: domain.StatusOutOfScope},
	}
	for i := range rows {
		require.NoError(t, store.Append(ctx, &rows[i]))
	}

	summary, err := store.Analytics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRequests)
	assert.Equal(t, 1, summary.TotalCompleted)

	mkbhd := summary.Creators["mkbhd"]
	assert.Equal(t, 2, mkbhd.TotalRequests)
	assert.Equal(t, 1, mkbhd.TotalCompleted)
	assert.Equal(t, 1, mkbhd.PlatformBreakdown[domain.PlatformInstagram].CodesSent)
	assert.Equal(t, 1, mkbhd.PlatformBreakdown[domain.PlatformTikTok].Requests)
	assert.Equal(t, 0, mkbhd.PlatformBreakdown[domain.PlatformTikTok].CodesSent)

	unknown := summary.Creators["unknown"]
	assert.Equal(t, 1, unknown.TotalRequests)
	assert.Equal(t, 0, unknown.TotalCompleted)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, &domain.InteractionRow{ID: "1"}))
	_, err := store.Record(ctx, domain.Issuance{Platform: domain.PlatformInstagram, UserID: "u1", CreatorID: "mkbhd", Code: "X"})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	assert.Empty(t, store.Interactions())
	got, err := store.Lookup(ctx, domain.PlatformInstagram, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
