package repository

import (
	"context"
	"sync"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// MemoryStore keeps interactions and issuances in process memory. It backs
// demos and tests; data lives only for the process lifetime. It implements
// both InteractionRepository and IssuanceRepository.
type MemoryStore struct {
	mu           sync.RWMutex
	interactions []domain.InteractionRow
	issuances    map[string]domain.Issuance
}

// NewMemoryStore initializes empty storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{issuances: make(map[string]domain.Issuance)}
}

func issuanceKey(platform domain.Platform, userID string) string {
	return string(platform) + "|" + userID
}

// Append stores a new interaction row.
func (s *MemoryStore) Append(_ context.Context, row *domain.InteractionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, *row)
	return nil
}

// Lookup returns the recorded issuance for the key, if any.
func (s *MemoryStore) Lookup(_ context.Context, platform domain.Platform, userID string) (*domain.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if iss, ok := s.issuances[issuanceKey(platform, userID)]; ok {
		out := iss
		return &out, nil
	}
	return nil, nil
}

// Record stores the issuance first-wins and returns the holder.
func (s *MemoryStore) Record(_ context.Context, issuance domain.Issuance) (*domain.Issuance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := issuanceKey(issuance.Platform, issuance.UserID)
	if existing, ok := s.issuances[key]; ok {
		out := existing
		return &out, nil
	}
	s.issuances[key] = issuance
	out := issuance
	return &out, nil
}

// Analytics folds the stored rows into the per-creator summary.
func (s *MemoryStore) Analytics(_ context.Context) (*domain.AnalyticsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &domain.AnalyticsSummary{
		TotalRequests: len(s.interactions),
		Creators:      make(map[string]domain.CreatorStats),
	}

	for _, row := range s.interactions {
		completed := row.ConversationStatus == domain.StatusCompleted
		if completed {
			summary.TotalCompleted++
		}

		creator := "unknown"
		if row.IdentifiedCreator != nil {
			creator = *row.IdentifiedCreator
		}

		stats, ok := summary.Creators[creator]
		if !ok {
			stats = domain.CreatorStats{
				CreatorHandle:     creator,
				PlatformBreakdown: make(map[domain.Platform]domain.PlatformStats),
			}
		}
		stats.TotalRequests++
		if completed {
			stats.TotalCompleted++
		}

		pb := stats.PlatformBreakdown[row.Platform]
		pb.Requests++
		if completed {
			pb.CodesSent++
		}
		stats.PlatformBreakdown[row.Platform] = pb
		summary.Creators[creator] = stats
	}

	summary.TotalCreators = len(summary.Creators)
	return summary, nil
}

// Clear drops all stored data.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = nil
	s.issuances = make(map[string]domain.Issuance)
	return nil
}

// Interactions returns a copy of all stored rows, oldest first.
func (s *MemoryStore) Interactions() []domain.InteractionRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.InteractionRow, len(s.interactions))
	copy(out, s.interactions)
	return out
}
