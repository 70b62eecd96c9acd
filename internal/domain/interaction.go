package domain

// ConversationStatus enumerates terminal states of a processed interaction.
type ConversationStatus string

const (
	StatusPendingCreatorInfo ConversationStatus = "pending_creator_info"
	StatusCompleted          ConversationStatus = "completed"
	StatusError              ConversationStatus = "error"
	StatusOutOfScope         ConversationStatus = "out_of_scope"
)

// Enrichment carries deterministic lead signals derived from a user id.
type Enrichment struct {
	FollowerCount         int
	IsPotentialInfluencer bool
}

// InteractionRow is the durable record written once per processed message.
// Rows are append-only: a resend produces a new row referencing the
// previously issued code, never an edit.
//
// Invariants: DiscountCodeSent is non-nil iff ConversationStatus is
// StatusCompleted; FollowerCount/IsPotentialInfluencer are non-nil iff
// IdentifiedCreator is non-nil.
type InteractionRow struct {
	ID                    string             `json:"id"`
	UserID                string             `json:"user_id"`
	Platform              Platform           `json:"platform"`
	Timestamp             string             `json:"timestamp"`
	RawIncomingMessage    string             `json:"raw_incoming_message"`
	IdentifiedCreator     *string            `json:"identified_creator"`
	DiscountCodeSent      *string            `json:"discount_code_sent"`
	ConversationStatus    ConversationStatus `json:"conversation_status"`
	FollowerCount         *int               `json:"follower_count"`
	IsPotentialInfluencer *bool              `json:"is_potential_influencer"`
}

// Issuance records the single discount code granted to a (platform, user)
// pair. The pair is the idempotency key; cross-platform identities are
// never unified.
type Issuance struct {
	Platform  Platform
	UserID    string
	CreatorID string
	Code      string
}
