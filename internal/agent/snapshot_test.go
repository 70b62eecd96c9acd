package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/domain"
)

func testSnapshot(t *testing.T) *campaign.Snapshot {
	t.Helper()

	creators := []domain.CreatorRecord{
		{CreatorID: "mkbhd", Code: "MARQUES20", Aliases: []string{"mkbhd", "marques", "brownlee", "marques brownlee"}},
		{CreatorID: "casey_neistat", Code: "CASEY15", Aliases: []string{"casey", "neistat", "casey neistat"}},
		{CreatorID: "lily_singh", Code: "LILY10", Aliases: []string{"lily", "singh", "lily singh"}},
	}
	index, err := campaign.BuildAliasIndex(creators)
	require.NoError(t, err)

	return &campaign.Snapshot{
		Creators:    creators,
		Index:       index,
		FuzzyAccept: 0.82,
		Flags:       campaign.Flags{EnableFuzzyMatching: true, EnableLLMFallback: true},
		Templates: campaign.Templates{
			IssueCode:     "code {discount_code} from {creator_handle}",
			ResendCode:    "you already have {discount_code}",
			AskCreator:    "which creator sent you?",
			OutOfScope:    "i only do discount codes",
			ErrorFallback: "something went wrong",
		},
	}
}
