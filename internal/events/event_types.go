package events

import (
	"time"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCodeIssued          EventType = "code_issued"
	EventCreatorMismatch     EventType = "creator_mismatch"
	EventInteractionRecorded EventType = "interaction_recorded"
)

// Event represents a domain event emitted by the pipeline.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Platform  domain.Platform `json:"platform"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   interface{}     `json:"payload"`
}

// CodeIssuedPayload describes a first-time code issuance.
type CodeIssuedPayload struct {
	CreatorID             string                 `json:"creator_id"`
	Code                  string                 `json:"code"`
	DetectionMethod       domain.DetectionMethod `json:"detection_method"`
	FollowerCount         int                    `json:"follower_count"`
	IsPotentialInfluencer bool                   `json:"is_potential_influencer"`
}

// CreatorMismatchPayload flags a user matched to a creator other than the
// one their code was originally issued for.
type CreatorMismatchPayload struct {
	IssuedCreatorID   string `json:"issued_creator_id"`
	DetectedCreatorID string `json:"detected_creator_id"`
	Code              string `json:"code"`
}

// InteractionRecordedPayload summarizes a persisted interaction row.
type InteractionRecordedPayload struct {
	RowID  string                    `json:"row_id"`
	Status domain.ConversationStatus `json:"status"`
}
