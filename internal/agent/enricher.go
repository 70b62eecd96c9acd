package agent

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/creatorlane/discount-agent/internal/domain"
)

const (
	followerBase  = 10000
	followerRange = 900000
	influencerMin = 50000
)

// Enrich derives lead signals from the user identifier alone. The hash is
// stable across processes, so the same user always scores the same; no
// external systems are consulted.
func Enrich(userID string) domain.Enrichment {
	sum := blake2b.Sum256([]byte(userID))
	h := binary.BigEndian.Uint64(sum[:8])

	followers := followerBase + int(h%followerRange)
	return domain.Enrichment{
		FollowerCount:         followers,
		IsPotentialInfluencer: followers > influencerMin || h%10 > 7,
	}
}
