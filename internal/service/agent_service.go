package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/agent"
	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/domain"
	"github.com/creatorlane/discount-agent/internal/events"
	"github.com/creatorlane/discount-agent/internal/observability"
	"github.com/creatorlane/discount-agent/internal/repository"
	apperrors "github.com/creatorlane/discount-agent/pkg/util"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// AgentService runs the full message pipeline: normalize, classify intent,
// detect the creator, resolve issuance, enrich, and record the interaction.
type AgentService struct {
	registry     *campaign.Registry
	classifier   *agent.Classifier
	detector     *agent.Detector
	ledger       *Ledger
	interactions repository.InteractionRepository
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// AgentDependencies bundles collaborators for the agent service.
type AgentDependencies struct {
	Registry     *campaign.Registry
	Classifier   *agent.Classifier
	Detector     *agent.Detector
	Ledger       *Ledger
	Interactions repository.InteractionRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewAgentService constructs the service.
func NewAgentService(deps AgentDependencies) *AgentService {
	return &AgentService{
		registry:     deps.Registry,
		classifier:   deps.Classifier,
		detector:     deps.Detector,
		ledger:       deps.Ledger,
		interactions: deps.Interactions,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
	}
}

// ProcessInput is one inbound message.
type ProcessInput struct {
	Platform domain.Platform
	UserID   string
	RawText  string
}

// ProcessResult is everything the transport needs to answer the caller.
type ProcessResult struct {
	Reply      string
	Row        domain.InteractionRow
	Method     domain.DetectionMethod
	Confidence float64
	Trace      []string
}

// ProcessMessage runs one message through the pipeline. It returns an error
// only for invalid input (no row is created) or a corrupt configuration;
// persistence failures surface through the row's error status while the
// caller still gets a best-effort reply.
func (s *AgentService) ProcessMessage(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	if !in.Platform.Valid() {
		return nil, apperrors.NewValidationError("platform must be instagram, tiktok or whatsapp", nil)
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.NewValidationError("user_id required", nil)
	}
	if strings.TrimSpace(in.RawText) == "" {
		return nil, apperrors.NewValidationError("message text required", nil)
	}

	snap := s.registry.Current()
	trace := &agent.Trace{}

	msg := domain.NormalizedMessage{
		Platform:       in.Platform,
		UserID:         in.UserID,
		NormalizedText: agent.Normalize(in.RawText),
		OriginalText:   in.RawText,
		ReceivedAt:     time.Now().UTC(),
	}
	normalized := msg.NormalizedText
	trace.Add("normalize: %q -> %q", in.RawText, normalized)

	inScope := s.classifier.InScope(normalized, snap)
	if inScope {
		trace.Add("intent: in_scope")
	} else {
		trace.Add("intent: out_of_scope")
	}

	detection := domain.DetectionResult{Method: domain.DetectionNone}
	if inScope {
		var err error
		detection, err = s.detector.Detect(ctx, normalized, snap, inScope, trace)
		if err != nil {
			return nil, apperrors.NewConfigInvalid(err)
		}
	}
	s.metrics.RecordDetection(detection.Method)

	status, code, reply := s.decide(ctx, snap, in, detection, inScope, trace)

	var enrichment *domain.Enrichment
	if detection.Found() {
		e := agent.Enrich(in.UserID)
		enrichment = &e
		trace.Add("enrich: followers=%d potential=%t", e.FollowerCount, e.IsPotentialInfluencer)
	}

	row := s.buildRow(msg, detection, status, code, enrichment)
	if err := s.interactions.Append(ctx, &row); err != nil {
		s.logger.Error("interaction append failed", zap.Error(err), zap.String("row_id", row.ID))
		trace.Add("record: failed")
		row.ConversationStatus = domain.StatusError
		row.DiscountCodeSent = nil
		reply = snap.Templates.ErrorFallback
	} else {
		trace.Add("record: %s", row.ID)
		s.publish(ctx, events.Event{
			Type:     events.EventInteractionRecorded,
			Platform: in.Platform,
			UserID:   in.UserID,
			Payload:  events.InteractionRecordedPayload{RowID: row.ID, Status: row.ConversationStatus},
		})
	}

	s.logger.Info("message processed",
		zap.String("platform", string(in.Platform)),
		zap.String("user_id", in.UserID),
		zap.String("method", string(detection.Method)),
		zap.String("status", string(row.ConversationStatus)))

	return &ProcessResult{
		Reply:      reply,
		Row:        row,
		Method:     detection.Method,
		Confidence: detection.Confidence,
		Trace:      trace.Steps(),
	}, nil
}

// decide applies the issuance rules and picks the reply template.
func (s *AgentService) decide(ctx context.Context, snap *campaign.Snapshot, in ProcessInput, detection domain.DetectionResult, inScope bool, trace *agent.Trace) (domain.ConversationStatus, string, string) {
	if !inScope {
		trace.Add("decide: out_of_scope")
		return domain.StatusOutOfScope, "", snap.Templates.OutOfScope
	}

	if !detection.Found() {
		trace.Add("decide: ask_creator")
		return domain.StatusPendingCreatorInfo, "", snap.Templates.AskCreator
	}

	creator, ok := snap.CreatorByID(detection.CreatorID)
	if !ok {
		// Detection tiers only emit handles from the active snapshot; a
		// miss here means the snapshot rotated mid-request.
		trace.Add("decide: creator %s not in snapshot, ask_creator", detection.CreatorID)
		return domain.StatusPendingCreatorInfo, "", snap.Templates.AskCreator
	}

	result, err := s.ledger.Issue(ctx, in.Platform, in.UserID, creator.CreatorID, creator.Code)
	if err != nil {
		s.logger.Error("issuance resolution failed", zap.Error(err),
			zap.String("platform", string(in.Platform)), zap.String("user_id", in.UserID))
		trace.Add("decide: ledger error")
		return domain.StatusError, "", snap.Templates.ErrorFallback
	}

	if result.Mismatch {
		s.publish(ctx, events.Event{
			Type:     events.EventCreatorMismatch,
			Platform: in.Platform,
			UserID:   in.UserID,
			Payload: events.CreatorMismatchPayload{
				IssuedCreatorID:   result.IssuedCreatorID,
				DetectedCreatorID: creator.CreatorID,
				Code:              result.Code,
			},
		})
	}

	if result.Resend {
		trace.Add("decide: resend_code %s", result.Code)
		return domain.StatusCompleted, result.Code,
			campaign.Render(snap.Templates.ResendCode, result.IssuedCreatorID, result.Code)
	}

	enrichment := agent.Enrich(in.UserID)
	s.publish(ctx, events.Event{
		Type:     events.EventCodeIssued,
		Platform: in.Platform,
		UserID:   in.UserID,
		Payload: events.CodeIssuedPayload{
			CreatorID:             creator.CreatorID,
			Code:                  result.Code,
			DetectionMethod:       detection.Method,
			FollowerCount:         enrichment.FollowerCount,
			IsPotentialInfluencer: enrichment.IsPotentialInfluencer,
		},
	})

	trace.Add("decide: issue_code %s for %s", result.Code, creator.CreatorID)
	return domain.StatusCompleted, result.Code,
		campaign.Render(snap.Templates.IssueCode, creator.CreatorID, result.Code)
}

// buildRow assembles the append-only record. The timestamp reflects
// processing time, not message receipt.
func (s *AgentService) buildRow(msg domain.NormalizedMessage, detection domain.DetectionResult, status domain.ConversationStatus, code string, enrichment *domain.Enrichment) domain.InteractionRow {
	row := domain.InteractionRow{
		ID:                 uuid.NewString(),
		UserID:             msg.UserID,
		Platform:           msg.Platform,
		Timestamp:          time.Now().UTC().Format(timestampLayout),
		RawIncomingMessage: msg.OriginalText,
		ConversationStatus: status,
	}
	if detection.Found() {
		creator := detection.CreatorID
		row.IdentifiedCreator = &creator
	}
	if status == domain.StatusCompleted && code != "" {
		c := code
		row.DiscountCodeSent = &c
	}
	if enrichment != nil {
		followers := enrichment.FollowerCount
		influencer := enrichment.IsPotentialInfluencer
		row.FollowerCount = &followers
		row.IsPotentialInfluencer = &influencer
	}
	return row
}

func (s *AgentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}
