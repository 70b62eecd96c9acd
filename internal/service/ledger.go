package service

import (
	"context"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/domain"
	"github.com/creatorlane/discount-agent/internal/repository"
)

const ledgerShards = 64

// IssueResult describes how an issuance request resolved.
type IssueResult struct {
	// Code the user holds after resolution. Always the first code ever
	// issued to the (platform, user) pair.
	Code string
	// IssuedCreatorID is the creator the held code belongs to.
	IssuedCreatorID string
	// Resend is true when the user already held a code.
	Resend bool
	// Mismatch is true when the detected creator differs from the one the
	// held code was issued for.
	Mismatch bool
}

// Ledger serializes issuance per (platform, user_id) and delegates the
// first-wins write to the issuance repository. Locks are sharded so
// unrelated users never contend; nothing here blocks on the LLM tier.
type Ledger struct {
	issuances repository.IssuanceRepository
	locks     [ledgerShards]sync.Mutex
	logger    *zap.Logger
}

// NewLedger constructs the ledger.
func NewLedger(issuances repository.IssuanceRepository, logger *zap.Logger) *Ledger {
	return &Ledger{issuances: issuances, logger: logger}
}

func (l *Ledger) lockFor(platform domain.Platform, userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(platform))
	h.Write([]byte{0})
	h.Write([]byte(userID))
	return &l.locks[h.Sum32()%ledgerShards]
}

// Issue resolves a detected creator to a discount code, minting at most one
// code per (platform, user_id) ever. A repeat request returns the original
// code unchanged; a repeat under a different creator keeps the first-issued
// code (first-creator-wins) and reports the mismatch.
func (l *Ledger) Issue(ctx context.Context, platform domain.Platform, userID, creatorID, code string) (IssueResult, error) {
	mu := l.lockFor(platform, userID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := l.issuances.Lookup(ctx, platform, userID)
	if err != nil {
		return IssueResult{}, err
	}

	if existing == nil {
		winner, err := l.issuances.Record(ctx, domain.Issuance{
			Platform:  platform,
			UserID:    userID,
			CreatorID: creatorID,
			Code:      code,
		})
		if err != nil {
			return IssueResult{}, err
		}
		result := IssueResult{
			Code:            winner.Code,
			IssuedCreatorID: winner.CreatorID,
			Resend:          winner.CreatorID != creatorID || winner.Code != code,
			Mismatch:        winner.CreatorID != creatorID,
		}
		if !result.Resend {
			l.logger.Info("code issued",
				zap.String("platform", string(platform)),
				zap.String("user_id", userID),
				zap.String("creator", creatorID),
				zap.String("code", code))
		}
		return result, nil
	}

	result := IssueResult{
		Code:            existing.Code,
		IssuedCreatorID: existing.CreatorID,
		Resend:          true,
		Mismatch:        existing.CreatorID != creatorID,
	}
	if result.Mismatch {
		l.logger.Warn("creator mismatch on repeat request",
			zap.String("platform", string(platform)),
			zap.String("user_id", userID),
			zap.String("issued_creator", existing.CreatorID),
			zap.String("detected_creator", creatorID))
	}
	return result, nil
}
