package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/agent"
	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/domain"
	"github.com/creatorlane/discount-agent/internal/events"
	"github.com/creatorlane/discount-agent/internal/observability"
	"github.com/creatorlane/discount-agent/internal/repository"
)

const testCampaignYAML = `creators:
  mkbhd:
    code: MARQUES20
    aliases: [mkbhd, marques, brownlee, marques brownlee]
  casey_neistat:
    code: CASEY15
    aliases: [casey, neistat, casey neistat]
thresholds:
  fuzzy_accept: 0.82
flags:
  enable_fuzzy_matching: true
  enable_llm_fallback: false
`

const testTemplatesYAML = `replies:
  issue_code: "code {discount_code} from {creator_handle}"
  resend_code: "already sent {discount_code}"
  ask_creator: "which creator sent you?"
  out_of_scope: "i only do discount codes"
  error_fallback: "something went wrong"
`

// eventLog records dispatched events for assertions.
type eventLog struct {
	byType map[events.EventType][]events.Event
}

func captureEvents(dispatcher events.Dispatcher) *eventLog {
	log := &eventLog{byType: make(map[events.EventType][]events.Event)}
	for _, et := range []events.EventType{
		events.EventCodeIssued, events.EventCreatorMismatch, events.EventInteractionRecorded,
	} {
		eventType := et
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			log.byType[eventType] = append(log.byType[eventType], e)
			return nil
		})
	}
	return log
}

type testHarness struct {
	service *AgentService
	store   *repository.MemoryStore
	events  *eventLog
	metrics *observability.Metrics
}

func newTestHarness(t *testing.T, interactions repository.InteractionRepository) *testHarness {
	t.Helper()

	dir := t.TempDir()
	campaignPath := filepath.Join(dir, "campaign.yaml")
	templatesPath := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(campaignPath, []byte(testCampaignYAML), 0o600))
	require.NoError(t, os.WriteFile(templatesPath, []byte(testTemplatesYAML), 0o600))

	logger := zap.NewNop()
	registry, err := campaign.NewRegistry(campaignPath, templatesPath, logger)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	if interactions == nil {
		interactions = store
	}

	dispatcher := events.NewInMemoryDispatcher()
	log := captureEvents(dispatcher)
	metrics := observability.NewMetrics()

	svc := NewAgentService(AgentDependencies{
		Registry:     registry,
		Classifier:   agent.NewClassifier(logger),
		Detector:     agent.NewDetector(nil, logger),
		Ledger:       NewLedger(store, logger),
		Interactions: interactions,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	return &testHarness{service: svc, store: store, events: log, metrics: metrics}
}

func (h *testHarness) process(t *testing.T, platform domain.Platform, userID, text string) *ProcessResult {
	t.Helper()
	result, err := h.service.ProcessMessage(context.Background(), ProcessInput{
		Platform: platform, UserID: userID, RawText: text,
	})
	require.NoError(t, err)
	return result
}

func assertRowInvariants(t *testing.T, row domain.InteractionRow) {
	t.Helper()

	// A code is present exactly when the conversation completed.
	if row.ConversationStatus == domain.StatusCompleted {
		assert.NotNil(t, row.DiscountCodeSent)
	} else {
		assert.Nil(t, row.DiscountCodeSent)
	}

	// Enrichment travels with an identified creator.
	if row.IdentifiedCreator == nil {
		assert.Nil(t, row.FollowerCount)
		assert.Nil(t, row.IsPotentialInfluencer)
	} else {
		assert.NotNil(t, row.FollowerCount)
		assert.NotNil(t, row.IsPotentialInfluencer)
	}

	_, err := time.Parse("2006-01-02T15:04:05.000Z", row.Timestamp)
	assert.NoError(t, err, "timestamp %q must be millisecond UTC", row.Timestamp)
	assert.NotEmpty(t, row.ID)
}

func TestProcessMessageOutOfScope(t *testing.T) {
	h := newTestHarness(t, nil)

	result := h.process(t, domain.PlatformInstagram, "u1", "Hello! How are you?")

	assert.Equal(t, "i only do discount codes", result.Reply)
	assert.Equal(t, domain.StatusOutOfScope, result.Row.ConversationStatus)
	assert.Nil(t, result.Row.IdentifiedCreator)
	assert.Equal(t, domain.DetectionNone, result.Method)
	assertRowInvariants(t, result.Row)

	rows := h.store.Interactions()
	require.Len(t, rows, 1)
	assert.Equal(t, "Hello! How are you?", rows[0].RawIncomingMessage)
}

func TestProcessMessageAsksForCreator(t *testing.T) {
	h := newTestHarness(t, nil)

	result := h.process(t, domain.PlatformInstagram, "u1", "i need a discount code")

	assert.Equal(t, "which creator sent you?", result.Reply)
	assert.Equal(t, domain.StatusPendingCreatorInfo, result.Row.ConversationStatus)
	assert.Nil(t, result.Row.IdentifiedCreator)
	assertRowInvariants(t, result.Row)
}

func TestProcessMessageIssuesCode(t *testing.T) {
	h := newTestHarness(t, nil)

	result := h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me!")

	assert.Equal(t, "code MARQUES20 from mkbhd", result.Reply)
	assert.Equal(t, domain.StatusCompleted, result.Row.ConversationStatus)
	require.NotNil(t, result.Row.IdentifiedCreator)
	assert.Equal(t, "mkbhd", *result.Row.IdentifiedCreator)
	require.NotNil(t, result.Row.DiscountCodeSent)
	assert.Equal(t, "MARQUES20", *result.Row.DiscountCodeSent)
	assert.Equal(t, domain.DetectionExact, result.Method)
	assert.Equal(t, 1.0, result.Confidence)
	assertRowInvariants(t, result.Row)

	require.Len(t, h.events.byType[events.EventCodeIssued], 1)
	assert.Len(t, h.events.byType[events.EventInteractionRecorded], 1)
}

func TestProcessMessageRepeatResendsSameCode(t *testing.T) {
	h := newTestHarness(t, nil)

	first := h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me")
	second := h.process(t, domain.PlatformInstagram, "u1", "can i get the marques discount again?")

	assert.Equal(t, domain.StatusCompleted, second.Row.ConversationStatus)
	require.NotNil(t, second.Row.DiscountCodeSent)
	assert.Equal(t, *first.Row.DiscountCodeSent, *second.Row.DiscountCodeSent)
	assert.Equal(t, "already sent MARQUES20", second.Reply)
	assertRowInvariants(t, second.Row)

	assert.Len(t, h.events.byType[events.EventCodeIssued], 1, "repeat must not re-issue")
	assert.Len(t, h.store.Interactions(), 2, "every interaction appends a row")
}

func TestProcessMessageMismatchKeepsFirstCode(t *testing.T) {
	h := newTestHarness(t, nil)

	h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me")
	result := h.process(t, domain.PlatformInstagram, "u1", "actually casey sent me")

	assert.Equal(t, domain.StatusCompleted, result.Row.ConversationStatus)
	require.NotNil(t, result.Row.DiscountCodeSent)
	assert.Equal(t, "MARQUES20", *result.Row.DiscountCodeSent, "first creator wins")
	require.NotNil(t, result.Row.IdentifiedCreator)
	assert.Equal(t, "casey_neistat", *result.Row.IdentifiedCreator)
	assertRowInvariants(t, result.Row)

	require.Len(t, h.events.byType[events.EventCreatorMismatch], 1)
	payload := h.events.byType[events.EventCreatorMismatch][0].Payload.(events.CreatorMismatchPayload)
	assert.Equal(t, "mkbhd", payload.IssuedCreatorID)
	assert.Equal(t, "casey_neistat", payload.DetectedCreatorID)
}

func TestProcessMessagePlatformsIssueIndependently(t *testing.T) {
	h := newTestHarness(t, nil)

	ig := h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me")
	tk := h.process(t, domain.PlatformTikTok, "u1", "mkbhd sent me")

	assert.Equal(t, "code MARQUES20 from mkbhd", ig.Reply)
	assert.Equal(t, "code MARQUES20 from mkbhd", tk.Reply)
	assert.Len(t, h.events.byType[events.EventCodeIssued], 2)
}

func TestProcessMessageFuzzyMisspelling(t *testing.T) {
	h := newTestHarness(t, nil)

	result := h.process(t, domain.PlatformTikTok, "u1", "marqes brwnli promo")

	assert.Equal(t, domain.StatusCompleted, result.Row.ConversationStatus)
	require.NotNil(t, result.Row.IdentifiedCreator)
	assert.Equal(t, "mkbhd", *result.Row.IdentifiedCreator)
	assert.Equal(t, domain.DetectionFuzzy, result.Method)
	assertRowInvariants(t, result.Row)
}

func TestProcessMessageRejectsInvalidInput(t *testing.T) {
	h := newTestHarness(t, nil)
	ctx := context.Background()

	cases := []ProcessInput{
		{Platform: "telegram", UserID: "u1", RawText: "hi"},
		{Platform: domain.PlatformInstagram, UserID: "  ", RawText: "hi"},
		{Platform: domain.PlatformInstagram, UserID: "u1", RawText: ""},
	}
	for _, in := range cases {
		_, err := h.service.ProcessMessage(ctx, in)
		assert.Error(t, err, "input %+v must be rejected", in)
	}

	assert.Empty(t, h.store.Interactions(), "invalid input must not create rows")
}

// failingInteractions rejects every append.
type failingInteractions struct{}

func (failingInteractions) Append(context.Context, *domain.InteractionRow) error {
	return fmt.Errorf("disk full")
}
func (failingInteractions) Analytics(context.Context) (*domain.AnalyticsSummary, error) {
	return nil, fmt.Errorf("disk full")
}
func (failingInteractions) Clear(context.Context) error { return fmt.Errorf("disk full") }

func TestProcessMessagePersistenceFailure(t *testing.T) {
	h := newTestHarness(t, failingInteractions{})

	result := h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me")

	assert.Equal(t, "something went wrong", result.Reply)
	assert.Equal(t, domain.StatusError, result.Row.ConversationStatus)
	assert.Nil(t, result.Row.DiscountCodeSent)
	assert.Empty(t, h.events.byType[events.EventInteractionRecorded])
}

func TestProcessMessageExplainTrace(t *testing.T) {
	h := newTestHarness(t, nil)

	result := h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me")
	assert.NotEmpty(t, result.Trace)
}

func TestProcessMessageCountsDetections(t *testing.T) {
	h := newTestHarness(t, nil)

	h.process(t, domain.PlatformInstagram, "u1", "mkbhd sent me")
	h.process(t, domain.PlatformInstagram, "u2", "hello")

	counts := h.metrics.DetectionCounts()
	assert.Equal(t, int64(1), counts[domain.DetectionExact])
	assert.Equal(t, int64(1), counts[domain.DetectionNone])
}
